package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/edurag/edurag/internal/vectorstore"
	"github.com/edurag/edurag/tools"
)

// fakeStore scripts vector store behaviour for tool tests.
type fakeStore struct {
	results    vectorstore.SearchResults
	searchErr  error
	lessonLink string

	meta    *vectorstore.CourseMetadata
	metaErr error

	gotQuery  string
	gotCourse string
	gotLesson *int
}

func (f *fakeStore) Search(_ context.Context, query, courseName string, lessonNumber *int) (vectorstore.SearchResults, error) {
	f.gotQuery = query
	f.gotCourse = courseName
	f.gotLesson = lessonNumber
	return f.results, f.searchErr
}

func (f *fakeStore) GetLessonLink(_ context.Context, _ string, _ int) (string, error) {
	return f.lessonLink, nil
}

func (f *fakeStore) GetCourseMetadata(_ context.Context, _ string) (*vectorstore.CourseMetadata, error) {
	return f.meta, f.metaErr
}

func sampleResults() vectorstore.SearchResults {
	return vectorstore.SearchResults{
		Documents: []string{"machine learning basics"},
		Metadata:  []map[string]any{{"course_title": "ML Fundamentals", "lesson_number": 1}},
		Distances: []float64{0.12},
	}
}

func execSearch(t *testing.T, tool *tools.ContentSearch, in tools.SearchInput) string {
	t.Helper()
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	out, err := tool.Execute(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return out
}

func TestContentSearch_FormatsHitsWithCourseAndLessonHeader(t *testing.T) {
	store := &fakeStore{results: sampleResults()}
	tool := tools.NewContentSearch(store)

	out := execSearch(t, tool, tools.SearchInput{Query: "machine learning"})

	if !strings.Contains(out, "[ML Fundamentals - Lesson 1]") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "machine learning basics") {
		t.Errorf("missing document text in %q", out)
	}
	if store.gotQuery != "machine learning" || store.gotCourse != "" || store.gotLesson != nil {
		t.Errorf("store called with query=%q course=%q lesson=%v", store.gotQuery, store.gotCourse, store.gotLesson)
	}
}

func TestContentSearch_OmitsLessonSuffixWithoutLessonNumber(t *testing.T) {
	store := &fakeStore{results: vectorstore.SearchResults{
		Documents: []string{"course intro"},
		Metadata:  []map[string]any{{"course_title": "ML Fundamentals"}},
		Distances: []float64{0.3},
	}}
	tool := tools.NewContentSearch(store)

	out := execSearch(t, tool, tools.SearchInput{Query: "intro"})

	if !strings.Contains(out, "[ML Fundamentals]\ncourse intro") {
		t.Errorf("unexpected block format: %q", out)
	}
	if srcs := tool.LastSources(); len(srcs) != 1 || srcs[0].Text != "ML Fundamentals" {
		t.Errorf("unexpected sources: %+v", srcs)
	}
}

func TestContentSearch_EmptyResults(t *testing.T) {
	store := &fakeStore{}
	tool := tools.NewContentSearch(store)

	out := execSearch(t, tool, tools.SearchInput{Query: "nonexistent topic"})

	if !strings.Contains(out, "No relevant content found") {
		t.Errorf("unexpected empty-result text: %q", out)
	}
	// Unfiltered empty search carries no filter parenthetical.
	if strings.Contains(out, "(") {
		t.Errorf("unexpected filter note in %q", out)
	}
}

func TestContentSearch_EmptyResultsNameActiveFilters(t *testing.T) {
	lesson := 3
	store := &fakeStore{}
	tool := tools.NewContentSearch(store)

	out := execSearch(t, tool, tools.SearchInput{Query: "x", CourseName: "ML Course", LessonNumber: &lesson})

	if !strings.Contains(out, "No relevant content found") {
		t.Errorf("unexpected text: %q", out)
	}
	if !strings.Contains(out, "ML Course") || !strings.Contains(out, "lesson 3") {
		t.Errorf("filter context missing from %q", out)
	}
}

func TestContentSearch_StoreErrorStringReturnedVerbatim(t *testing.T) {
	store := &fakeStore{results: vectorstore.EmptyResults("No course found matching 'BadCourse'")}
	tool := tools.NewContentSearch(store)

	out := execSearch(t, tool, tools.SearchInput{Query: "test", CourseName: "BadCourse"})

	if out != "No course found matching 'BadCourse'" {
		t.Errorf("error text not verbatim: %q", out)
	}
}

func TestContentSearch_StoreFailurePropagates(t *testing.T) {
	store := &fakeStore{searchErr: errors.New("connection refused")}
	tool := tools.NewContentSearch(store)

	raw, _ := json.Marshal(tools.SearchInput{Query: "x"})
	_, err := tool.Execute(context.Background(), raw)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}

func TestContentSearch_TracksSourcesWithLessonLink(t *testing.T) {
	store := &fakeStore{results: sampleResults(), lessonLink: "https://example.com/lesson"}
	tool := tools.NewContentSearch(store)

	execSearch(t, tool, tools.SearchInput{Query: "test"})

	srcs := tool.LastSources()
	if len(srcs) != 1 {
		t.Fatalf("got %d sources, want 1", len(srcs))
	}
	if srcs[0].Text != "ML Fundamentals - Lesson 1" {
		t.Errorf("source text = %q", srcs[0].Text)
	}
	if srcs[0].Link != "https://example.com/lesson" {
		t.Errorf("source link = %q", srcs[0].Link)
	}
}

func TestContentSearch_SecondExecuteOverwritesSources(t *testing.T) {
	store := &fakeStore{results: sampleResults()}
	tool := tools.NewContentSearch(store)

	execSearch(t, tool, tools.SearchInput{Query: "first"})

	store.results = vectorstore.SearchResults{
		Documents: []string{"advanced topics"},
		Metadata:  []map[string]any{{"course_title": "Deep Learning", "lesson_number": 4}},
		Distances: []float64{0.2},
	}
	execSearch(t, tool, tools.SearchInput{Query: "second"})

	srcs := tool.LastSources()
	if len(srcs) != 1 || srcs[0].Text != "Deep Learning - Lesson 4" {
		t.Errorf("sources not overwritten: %+v", srcs)
	}
}

func TestContentSearch_InvalidInputJSON(t *testing.T) {
	tool := tools.NewContentSearch(&fakeStore{})
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"query": 42`)); err == nil {
		t.Fatal("expected error for malformed input")
	}
}
