package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/edurag/edurag/internal/vectorstore"
)

// OutlineStore is the slice of the vector store the outline tool needs.
type OutlineStore interface {
	GetCourseMetadata(ctx context.Context, courseName string) (*vectorstore.CourseMetadata, error)
}

var _ OutlineStore = (*vectorstore.Store)(nil)

type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title to fetch the outline for; partial names resolve to the closest match."`
}

var outlineInputSchema = GenerateSchema[OutlineInput]()

// Outline returns a course's structure: title, link and full lesson list.
type Outline struct {
	store OutlineStore
}

// NewOutline returns an outline tool backed by store.
func NewOutline(store OutlineStore) *Outline {
	return &Outline{store: store}
}

func (t *Outline) Name() string { return "get_course_outline" }

func (t *Outline) Description() string {
	return "Get the complete outline of a course: its title, link, and full lesson list"
}

func (t *Outline) InputSchema() anthropic.ToolInputSchemaParam { return outlineInputSchema }

// Execute looks up course metadata by fuzzy name match. A missing course is
// ordinary result text, not an error; store failures propagate.
func (t *Outline) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in OutlineInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid outline input: %w", err)
	}

	meta, err := t.store.GetCourseMetadata(ctx, in.CourseName)
	if err != nil {
		return "", err
	}
	if meta == nil {
		return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", meta.Title)
	if meta.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", meta.Link)
	}
	fmt.Fprintf(&b, "\nLessons (%d total):\n", len(meta.Lessons))
	for _, l := range meta.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", l.Number, l.Title)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
