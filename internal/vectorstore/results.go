package vectorstore

// SearchResults is the outcome of one similarity search. Documents, Metadata
// and Distances are parallel slices of equal length; when Error is set all
// three are empty. Error carries no-match conditions (e.g. an unresolvable
// course filter), not infrastructure failures — those surface as Go errors
// from Search itself.
type SearchResults struct {
	Documents []string
	Metadata  []map[string]any
	Distances []float64
	Error     string
}

// EmptyResults returns a result set carrying only an error message.
func EmptyResults(errMsg string) SearchResults {
	return SearchResults{Error: errMsg}
}

// IsEmpty reports whether the search matched no documents.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// Lesson is one entry of a course outline.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// CourseMetadata is the stored structure of a single course.
type CourseMetadata struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Course describes a course to ingest, including its outline.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Chunk is one embeddable piece of course content. LessonNumber is nil for
// content outside any lesson (e.g. the course preamble).
type Chunk struct {
	Content      string
	LessonNumber *int
	Index        int
}
