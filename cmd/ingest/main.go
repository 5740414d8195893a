// edurag-ingest - loads course documents into the vector store
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/edurag/edurag/internal/config"
	"github.com/edurag/edurag/internal/embedder"
	"github.com/edurag/edurag/internal/ingest"
	"github.com/edurag/edurag/internal/vectorstore"
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

	docsDir := cfg.DocsDir
	if len(os.Args) > 1 {
		docsDir = os.Args[1]
	}

	ctx := context.Background()

	emb := embedder.NewHTTP(cfg.EmbeddingsURL, cfg.EmbeddingsModel, cfg.EmbeddingsKey)
	store, err := vectorstore.Connect(ctx, cfg.DatabaseURL, cfg.EmbeddingsDim, emb, cfg.MaxResults, logger)
	if err != nil {
		slog.Error("Failed to connect to vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	existing, err := store.CourseTitles(ctx)
	if err != nil {
		slog.Error("Failed to list existing courses", "error", err)
		os.Exit(1)
	}
	known := make(map[string]bool, len(existing))
	for _, title := range existing {
		known[title] = true
	}

	entries, err := os.ReadDir(docsDir)
	if err != nil {
		slog.Error("Failed to read docs directory", "dir", docsDir, "error", err)
		os.Exit(1)
	}

	added, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".txt", ".md":
		default:
			continue
		}
		path := filepath.Join(docsDir, entry.Name())

		course, chunks, err := ingest.ParseFile(path, cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			slog.Error("Failed to parse course document", "file", path, "error", err)
			os.Exit(1)
		}
		if known[course.Title] {
			slog.Info("Course already ingested, skipping", "course", course.Title)
			skipped++
			continue
		}

		if err := store.AddCourse(ctx, course); err != nil {
			slog.Error("Failed to store course", "course", course.Title, "error", err)
			os.Exit(1)
		}
		if err := store.AddChunks(ctx, course.Title, chunks); err != nil {
			slog.Error("Failed to store course content", "course", course.Title, "error", err)
			os.Exit(1)
		}

		known[course.Title] = true
		added++
		slog.Info("Course ingested", "course", course.Title, "lessons", len(course.Lessons), "chunks", len(chunks))
	}

	slog.Info("Ingestion complete", "added", added, "skipped", skipped)
}
