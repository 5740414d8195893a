// Package rag wires sessions, the tool registry and the response runner into
// the query-level orchestrator behind the API.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edurag/edurag/internal/runner"
	"github.com/edurag/edurag/internal/telemetry"
	"github.com/edurag/edurag/tools"
)

// Generator produces the final answer for one query. Implemented by
// *runner.Runner.
type Generator interface {
	Answer(ctx context.Context, query, history string, defs []tools.Definition, exec runner.Executor) (string, error)
}

// Sessions provides bounded per-session exchange history. Implemented by
// *session.Manager.
type Sessions interface {
	Create(ctx context.Context) (string, error)
	History(ctx context.Context, sessionID string) (string, error)
	AddExchange(ctx context.Context, sessionID, question, answer string) error
	Clear(ctx context.Context, sessionID string) error
}

// CourseCatalog reports what course material is stored. Implemented by
// *vectorstore.Store.
type CourseCatalog interface {
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

// Analytics summarizes the stored course material.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System answers course questions: it resolves the session, delegates to the
// generator with the registry's tools, persists the exchange, and collects
// source attribution.
//
// The registry's source side channel is not keyed per query, so Query
// serializes on a mutex from generation through source collection. Callers
// needing parallel queries should run one System (with its own registry and
// tools) per worker.
type System struct {
	gen      Generator
	sessions Sessions
	catalog  CourseCatalog
	registry *tools.Registry
	logger   *slog.Logger

	mu sync.Mutex
}

// New assembles a System. registry must already have its tools registered.
func New(gen Generator, sessions Sessions, catalog CourseCatalog, registry *tools.Registry, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{gen: gen, sessions: sessions, catalog: catalog, registry: registry, logger: logger}
}

// Query answers one user question. An empty sessionID creates a new session;
// the (possibly created) id is always returned so the caller can continue
// the conversation.
func (s *System) Query(ctx context.Context, query, sessionID string) (answer string, sources []tools.Source, sid string, err error) {
	if sessionID == "" {
		sessionID, err = s.sessions.Create(ctx)
		if err != nil {
			return "", nil, "", fmt.Errorf("create session: %w", err)
		}
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", nil, "", fmt.Errorf("load session history: %w", err)
	}

	queryID := uuid.NewString()
	ctx = telemetry.WithQueryID(ctx, queryID)
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err = s.gen.Answer(ctx, query, history, s.registry.Definitions(), s.registry)
	if err != nil {
		return "", nil, "", err
	}

	sources = s.registry.LastSources()
	s.registry.ResetSources()

	telemetry.Emit("query", map[string]any{
		"query_id": queryID, "session_id": sessionID,
		"duration_ms": time.Since(start).Milliseconds(), "sources": len(sources),
	})

	// A failed history write degrades future context but the answer is
	// already in hand; don't fail the query over it.
	if err := s.sessions.AddExchange(ctx, sessionID, query, answer); err != nil {
		s.logger.Warn("failed to persist exchange", "session_id", sessionID, "error", err)
	}

	return answer, sources, sessionID, nil
}

// ClearSession drops a session's conversation history.
func (s *System) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// GetAnalytics reports how many courses are stored and their titles.
func (s *System) GetAnalytics(ctx context.Context) (Analytics, error) {
	total, err := s.catalog.CourseCount(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("count courses: %w", err)
	}
	titles, err := s.catalog.CourseTitles(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("list courses: %w", err)
	}
	return Analytics{TotalCourses: total, CourseTitles: titles}, nil
}
