package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/edurag/edurag/internal/vectorstore"
)

// SearchStore is the slice of the vector store the content-search tool needs.
type SearchStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) (vectorstore.SearchResults, error)
	GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
}

var _ SearchStore = (*vectorstore.Store)(nil)

type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content."`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title to search within; partial names resolve to the closest match (e.g. 'MCP', 'Introduction')."`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)."`
}

var searchInputSchema = GenerateSchema[SearchInput]()

// ContentSearch searches course material with fuzzy course matching and
// optional lesson filtering, recording one source per matched chunk.
type ContentSearch struct {
	store       SearchStore
	lastSources []Source
}

// NewContentSearch returns a search tool backed by store.
func NewContentSearch(store SearchStore) *ContentSearch {
	return &ContentSearch{store: store}
}

func (t *ContentSearch) Name() string { return "search_course_content" }

func (t *ContentSearch) Description() string {
	return "Search course materials with smart course name matching and lesson filtering"
}

func (t *ContentSearch) InputSchema() anthropic.ToolInputSchemaParam { return searchInputSchema }

// Execute runs the filtered similarity search and formats the hits as
// labeled blocks. Store error strings (e.g. an unresolvable course filter)
// are returned verbatim; infrastructure failures propagate as errors for the
// orchestrator to convert into error tool results.
func (t *ContentSearch) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in SearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid search input: %w", err)
	}

	res, err := t.store.Search(ctx, in.Query, in.CourseName, in.LessonNumber)
	if err != nil {
		return "", err
	}
	if res.Error != "" {
		return res.Error, nil
	}
	if res.IsEmpty() {
		return emptySearchMessage(in), nil
	}

	blocks := make([]string, 0, len(res.Documents))
	sources := make([]Source, 0, len(res.Documents))
	for i, doc := range res.Documents {
		meta := res.Metadata[i]
		course, _ := meta["course_title"].(string)
		if course == "" {
			course = "unknown"
		}

		label := course
		link := ""
		if n, ok := meta["lesson_number"].(int); ok {
			label = fmt.Sprintf("%s - Lesson %d", course, n)
			// Link lookup is best effort; a missing link still yields a source.
			if l, err := t.store.GetLessonLink(ctx, course, n); err == nil {
				link = l
			}
		}

		blocks = append(blocks, "["+label+"]\n"+doc)
		sources = append(sources, Source{Text: label, Link: link})
	}
	t.lastSources = sources

	return strings.Join(blocks, "\n\n"), nil
}

func emptySearchMessage(in SearchInput) string {
	msg := "No relevant content found"
	var filters []string
	if in.CourseName != "" {
		filters = append(filters, fmt.Sprintf("in course '%s'", in.CourseName))
	}
	if in.LessonNumber != nil {
		filters = append(filters, fmt.Sprintf("in lesson %d", *in.LessonNumber))
	}
	if len(filters) > 0 {
		msg += " (" + strings.Join(filters, " ") + ")"
	}
	return msg
}

// LastSources returns the sources recorded by the most recent Execute.
func (t *ContentSearch) LastSources() []Source { return t.lastSources }

// ResetSources clears recorded sources.
func (t *ContentSearch) ResetSources() { t.lastSources = nil }
