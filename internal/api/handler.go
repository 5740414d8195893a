// Package api provides HTTP handlers for the course QA API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edurag/edurag/internal/rag"
	"github.com/edurag/edurag/tools"
)

// QuerySystem answers questions and manages sessions. Implemented by
// *rag.System.
type QuerySystem interface {
	Query(ctx context.Context, query, sessionID string) (string, []tools.Source, string, error)
	ClearSession(ctx context.Context, sessionID string) error
	GetAnalytics(ctx context.Context) (rag.Analytics, error)
}

var _ QuerySystem = (*rag.System)(nil)

// Handler serves the query and course endpoints.
type Handler struct {
	system QuerySystem
	logger *slog.Logger
}

// NewHandler creates a Handler backed by the given system.
func NewHandler(system QuerySystem, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{system: system, logger: logger}
}

// RegisterRoutes registers API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", h.Query)
		r.Get("/courses", h.Courses)
		r.Delete("/session/{sessionID}", h.ClearSession)
	})
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type sourceResponse struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

type queryResponse struct {
	Answer    string           `json:"answer"`
	Sources   []sourceResponse `json:"sources"`
	SessionID string           `json:"session_id"`
}

// Query answers a question, creating a session when none is supplied.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		Error(w, http.StatusBadRequest, "query cannot be empty")
		return
	}

	answer, sources, sessionID, err := h.system.Query(r.Context(), req.Query, req.SessionID)
	if err != nil {
		h.logger.Error("query failed", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := queryResponse{
		Answer:    answer,
		Sources:   make([]sourceResponse, 0, len(sources)),
		SessionID: sessionID,
	}
	for _, s := range sources {
		resp.Sources = append(resp.Sources, sourceResponse{Text: s.Text, Link: s.Link})
	}
	JSON(w, http.StatusOK, resp)
}

// Courses reports course analytics.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.system.GetAnalytics(r.Context())
	if err != nil {
		h.logger.Error("course analytics failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, analytics)
}

// ClearSession drops a session's conversation history.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}
	if err := h.system.ClearSession(r.Context(), sessionID); err != nil {
		h.logger.Error("clear session failed", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
