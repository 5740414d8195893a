package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/edurag/edurag/internal/rag"
	"github.com/edurag/edurag/tools"
)

type fakeSystem struct {
	answer    string
	sources   []tools.Source
	sessionID string
	queryErr  error
	analytics rag.Analytics
	cleared   []string
	clearErr  error
	gotQuery  string
	gotSID    string
}

func (f *fakeSystem) Query(_ context.Context, query, sessionID string) (string, []tools.Source, string, error) {
	f.gotQuery = query
	f.gotSID = sessionID
	return f.answer, f.sources, f.sessionID, f.queryErr
}

func (f *fakeSystem) ClearSession(_ context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return f.clearErr
}

func (f *fakeSystem) GetAnalytics(context.Context) (rag.Analytics, error) {
	return f.analytics, nil
}

func newRouter(sys *fakeSystem) chi.Router {
	r := chi.NewRouter()
	NewHandler(sys, nil).RegisterRoutes(r)
	return r
}

func TestQuery_OK(t *testing.T) {
	sys := &fakeSystem{
		answer:    "Lesson 1 covers retrieval.",
		sources:   []tools.Source{{Text: "RAG Course - Lesson 1", Link: "https://example.com/l1"}},
		sessionID: "s1",
	}
	r := newRouter(sys)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query":"What is lesson 1 about?","session_id":"s1"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Answer  string `json:"answer"`
		Sources []struct {
			Text string `json:"text"`
			Link string `json:"link"`
		} `json:"sources"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "Lesson 1 covers retrieval." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Link != "https://example.com/l1" {
		t.Errorf("sources = %+v", resp.Sources)
	}
	if resp.SessionID != "s1" {
		t.Errorf("session_id = %q", resp.SessionID)
	}
	if sys.gotQuery != "What is lesson 1 about?" || sys.gotSID != "s1" {
		t.Errorf("system got %q / %q", sys.gotQuery, sys.gotSID)
	}
}

func TestQuery_EmptySourcesSerializedAsArray(t *testing.T) {
	sys := &fakeSystem{answer: "a", sessionID: "s1"}
	r := newRouter(sys)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"q"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"sources":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestQuery_EmptyQueryRejected(t *testing.T) {
	r := newRouter(&fakeSystem{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"  "}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQuery_BadJSONRejected(t *testing.T) {
	r := newRouter(&fakeSystem{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQuery_SystemError(t *testing.T) {
	r := newRouter(&fakeSystem{queryErr: errors.New("model unavailable")})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"q"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "model unavailable") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCourses(t *testing.T) {
	sys := &fakeSystem{analytics: rag.Analytics{TotalCourses: 2, CourseTitles: []string{"A", "B"}}}
	r := newRouter(sys)

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		TotalCourses int      `json:"total_courses"`
		CourseTitles []string `json:"course_titles"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCourses != 2 || len(resp.CourseTitles) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestClearSession(t *testing.T) {
	sys := &fakeSystem{}
	r := newRouter(sys)

	req := httptest.NewRequest(http.MethodDelete, "/api/session/s42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"success"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(sys.cleared) != 1 || sys.cleared[0] != "s42" {
		t.Errorf("cleared = %v", sys.cleared)
	}
}

func TestClearSession_Error(t *testing.T) {
	r := newRouter(&fakeSystem{clearErr: errors.New("db locked")})

	req := httptest.NewRequest(http.MethodDelete, "/api/session/s1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
