// Package session stores bounded per-session conversation history.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Manager persists (question, answer) exchanges per session id in SQLite,
// keeping only the most recent maxHistory exchanges per session.
type Manager struct {
	db         *sql.DB
	maxHistory int
}

// Open creates or opens the session database at dbPath. maxHistory bounds
// how many exchanges are retained per session; older ones are evicted.
func Open(dbPath string, maxHistory int) (*Manager, error) {
	if maxHistory <= 0 {
		return nil, fmt.Errorf("maxHistory must be positive, got %d", maxHistory)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create session db directory: %w", err)
	}

	// WAL keeps concurrent readers cheap; busy timeout rides out writers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping session db: %w", err)
	}

	m := &Manager{db: db, maxHistory: maxHistory}
	if err := m.initSchema(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
	`
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("create session schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Create returns a fresh session id. Sessions exist implicitly; no row is
// written until the first exchange.
func (m *Manager) Create(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// AddExchange appends one (question, answer) pair and evicts exchanges
// beyond the retention cap, oldest first.
func (m *Manager) AddExchange(ctx context.Context, sessionID, question, answer string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO exchanges (session_id, question, answer, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, question, answer, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		DELETE FROM exchanges
		WHERE session_id = ?
		  AND id NOT IN (
			SELECT id FROM exchanges WHERE session_id = ? ORDER BY id DESC LIMIT ?
		  )`,
		sessionID, sessionID, m.maxHistory)
	if err != nil {
		return fmt.Errorf("evict old exchanges: %w", err)
	}
	return nil
}

// History returns the retained exchanges for sessionID as prompt-ready text
// ("User: ...\nAssistant: ..." per exchange, oldest first), or "" when the
// session has none.
func (m *Manager) History(ctx context.Context, sessionID string) (string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT question, answer FROM (
			SELECT id, question, answer FROM exchanges
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		sessionID, m.maxHistory)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var q, a string
		if err := rows.Scan(&q, &a); err != nil {
			return "", fmt.Errorf("scan exchange: %w", err)
		}
		parts = append(parts, "User: "+q+"\nAssistant: "+a)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate exchanges: %w", err)
	}
	return strings.Join(parts, "\n"), nil
}

// Clear removes all exchanges for sessionID. Clearing an unknown session is
// a no-op.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM exchanges WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
