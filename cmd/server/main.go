// edurag - course materials QA server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/edurag/edurag/internal/api"
	"github.com/edurag/edurag/internal/config"
	"github.com/edurag/edurag/internal/embedder"
	"github.com/edurag/edurag/internal/provider"
	"github.com/edurag/edurag/internal/rag"
	"github.com/edurag/edurag/internal/runner"
	"github.com/edurag/edurag/internal/session"
	"github.com/edurag/edurag/internal/vectorstore"
	"github.com/edurag/edurag/tools"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port)

	// Initialize dependencies.
	sessions, err := session.Open(cfg.SessionDBPath, cfg.MaxHistory)
	if err != nil {
		slog.Error("Failed to open session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	emb := embedder.NewHTTP(cfg.EmbeddingsURL, cfg.EmbeddingsModel, cfg.EmbeddingsKey)

	store, err := vectorstore.Connect(context.Background(), cfg.DatabaseURL, cfg.EmbeddingsDim, emb, cfg.MaxResults, logger)
	if err != nil {
		slog.Error("Failed to connect to vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Vector store connected")

	model := provider.DefaultModel
	if cfg.AnthropicModel != "" {
		model = anthropic.Model(cfg.AnthropicModel)
	}
	client := provider.NewClient(cfg.AnthropicAPIKey)
	gen := runner.New(client, model, logger)

	registry := tools.NewRegistry()
	registry.Register(tools.NewContentSearch(store))
	registry.Register(tools.NewOutline(store))

	system := rag.New(gen, sessions, store, registry, logger)
	handler := api.NewHandler(system, logger)

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
