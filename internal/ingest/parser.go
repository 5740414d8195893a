// Package ingest turns course transcript files into structured courses and
// overlapping text chunks ready for embedding.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/edurag/edurag/internal/vectorstore"
)

var lessonHeading = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)

// ParseFile reads a course document from disk and returns the course
// metadata plus its chunked content.
func ParseFile(path string, chunkSize, overlap int) (vectorstore.Course, []vectorstore.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return vectorstore.Course{}, nil, fmt.Errorf("open course file: %w", err)
	}
	defer f.Close()
	return Parse(f, chunkSize, overlap)
}

// Parse reads a course document. The expected layout is a short header
//
//	Course Title: ...
//	Course Link: ...
//	Course Instructor: ...
//
// followed by "Lesson N: title" sections, each optionally opening with a
// "Lesson Link:" line before the transcript text.
func Parse(r io.Reader, chunkSize, overlap int) (vectorstore.Course, []vectorstore.Chunk, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var course vectorstore.Course
	var chunks []vectorstore.Chunk

	var curLesson *vectorstore.Lesson
	var curText strings.Builder
	inHeader := true

	flush := func() {
		text := strings.TrimSpace(curText.String())
		curText.Reset()
		if text == "" {
			return
		}
		var lessonNum *int
		if curLesson != nil {
			n := curLesson.Number
			lessonNum = &n
			// Prefix each chunk so a lesson-scoped passage stays
			// attributable after retrieval.
			text = fmt.Sprintf("Lesson %d content: %s", n, text)
		}
		for _, piece := range ChunkText(text, chunkSize, overlap) {
			chunks = append(chunks, vectorstore.Chunk{
				Content:      piece,
				LessonNumber: lessonNum,
				Index:        len(chunks),
			})
		}
	}

	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		if inHeader {
			switch {
			case strings.HasPrefix(trimmed, "Course Title:"):
				course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
				continue
			case strings.HasPrefix(trimmed, "Course Link:"):
				course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
				continue
			case strings.HasPrefix(trimmed, "Course Instructor:"):
				course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
				continue
			case trimmed == "":
				continue
			}
			inHeader = false
		}

		if m := lessonHeading.FindStringSubmatch(trimmed); m != nil {
			flush()
			n, _ := strconv.Atoi(m[1])
			course.Lessons = append(course.Lessons, vectorstore.Lesson{
				Number: n,
				Title:  strings.TrimSpace(m[2]),
			})
			curLesson = &course.Lessons[len(course.Lessons)-1]
			continue
		}

		if curLesson != nil && curLesson.Link == "" && strings.HasPrefix(trimmed, "Lesson Link:") && curText.Len() == 0 {
			curLesson.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		curText.WriteString(line)
		curText.WriteString("\n")
	}
	if err := sc.Err(); err != nil {
		return vectorstore.Course{}, nil, fmt.Errorf("read course file: %w", err)
	}
	flush()

	if course.Title == "" {
		return vectorstore.Course{}, nil, fmt.Errorf("course document has no Course Title header")
	}
	return course, chunks, nil
}
