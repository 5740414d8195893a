package session_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edurag/edurag/internal/session"
)

func openManager(t *testing.T, maxHistory int) *session.Manager {
	t.Helper()
	m, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"), maxHistory)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestCreate_ReturnsUniqueIDs(t *testing.T) {
	m := openManager(t, 2)
	ctx := context.Background()

	a, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a == "" || a == b {
		t.Fatalf("ids not unique: %q, %q", a, b)
	}
}

func TestHistory_EmptyForNewSession(t *testing.T) {
	m := openManager(t, 2)

	h, err := m.History(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h != "" {
		t.Errorf("history = %q, want empty", h)
	}
}

func TestAddExchange_FormatsHistory(t *testing.T) {
	m := openManager(t, 2)
	ctx := context.Background()

	if err := m.AddExchange(ctx, "s1", "What is ML?", "A field of study."); err != nil {
		t.Fatalf("add: %v", err)
	}

	h, err := m.History(ctx, "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := "User: What is ML?\nAssistant: A field of study."
	if h != want {
		t.Errorf("history = %q, want %q", h, want)
	}
}

func TestAddExchange_EvictsOldestBeyondCap(t *testing.T) {
	m := openManager(t, 2)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		if err := m.AddExchange(ctx, "s1", q, "answer to "+q); err != nil {
			t.Fatalf("add %q: %v", q, err)
		}
	}

	h, err := m.History(ctx, "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Contains(h, "one") {
		t.Errorf("oldest exchange not evicted:\n%s", h)
	}
	if !strings.Contains(h, "two") || !strings.Contains(h, "three") {
		t.Errorf("recent exchanges missing:\n%s", h)
	}
	if !strings.HasPrefix(h, "User: two") {
		t.Errorf("history not oldest-first:\n%s", h)
	}
}

func TestHistory_SessionsAreIsolated(t *testing.T) {
	m := openManager(t, 2)
	ctx := context.Background()

	_ = m.AddExchange(ctx, "s1", "q1", "a1")
	_ = m.AddExchange(ctx, "s2", "q2", "a2")

	h, err := m.History(ctx, "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Contains(h, "q2") {
		t.Errorf("cross-session leak:\n%s", h)
	}
}

func TestClear_RemovesHistory(t *testing.T) {
	m := openManager(t, 2)
	ctx := context.Background()

	_ = m.AddExchange(ctx, "s1", "q", "a")
	if err := m.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	h, _ := m.History(ctx, "s1")
	if h != "" {
		t.Errorf("history after clear = %q", h)
	}

	// Clearing again is a no-op.
	if err := m.Clear(ctx, "s1"); err != nil {
		t.Errorf("clear unknown session: %v", err)
	}
}
