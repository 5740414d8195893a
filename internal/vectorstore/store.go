// Package vectorstore persists course material in Postgres with pgvector and
// serves filtered similarity search over it.
package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/edurag/edurag/internal/embedder"
)

// embedBatchSize caps how many chunks are embedded per request.
const embedBatchSize = 64

// Store is a pgvector-backed course store. Safe for concurrent use; all
// shared state lives in the connection pool.
type Store struct {
	pool       *pgxpool.Pool
	embedder   embedder.Embedder
	maxResults int
	logger     *slog.Logger
}

// Connect opens a pool against databaseURL, registers the pgvector codec on
// every connection, and ensures the schema exists with dims-sized vectors.
func Connect(ctx context.Context, databaseURL string, dims int, emb embedder.Embedder, maxResults int, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(pool, emb, maxResults, logger)
	if err := s.initSchema(ctx, dims); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. maxResults must be positive; it bounds every
// similarity search.
func New(pool *pgxpool.Pool, emb embedder.Embedder, maxResults int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: emb, maxResults: maxResults, logger: logger}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) initSchema(ctx context.Context, dims int) error {
	ddl := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS courses (
		title TEXT PRIMARY KEY,
		link TEXT NOT NULL DEFAULT '',
		instructor TEXT NOT NULL DEFAULT '',
		title_embedding vector(%d) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lessons (
		course_title TEXT NOT NULL REFERENCES courses(title) ON DELETE CASCADE,
		lesson_number INT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (course_title, lesson_number)
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id BIGSERIAL PRIMARY KEY,
		course_title TEXT NOT NULL REFERENCES courses(title) ON DELETE CASCADE,
		lesson_number INT,
		chunk_index INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_course ON chunks(course_title);
	`, dims, dims)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Search embeds query and returns the closest chunks, optionally restricted
// to a course (fuzzy name match) and lesson number. An unresolvable course
// filter is reported through SearchResults.Error; infrastructure failures
// return a Go error.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) (SearchResults, error) {
	courseTitle := ""
	if courseName != "" {
		resolved, err := s.resolveCourseTitle(ctx, courseName)
		if err != nil {
			return SearchResults{}, err
		}
		if resolved == "" {
			return EmptyResults(fmt.Sprintf("No course found matching '%s'", courseName)), nil
		}
		courseTitle = resolved
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return SearchResults{}, fmt.Errorf("embed query: %w", err)
	}
	qvec := pgvector.NewVector(vecs[0])

	sqlQuery := `
		SELECT content, course_title, lesson_number, embedding <=> $1 AS distance
		FROM chunks
		WHERE ($2 = '' OR course_title = $2)
		  AND ($3::int IS NULL OR lesson_number = $3)
		ORDER BY embedding <=> $1
		LIMIT $4`

	var lessonArg any
	if lessonNumber != nil {
		lessonArg = *lessonNumber
	}

	rows, err := s.pool.Query(ctx, sqlQuery, qvec, courseTitle, lessonArg, s.maxResults)
	if err != nil {
		return SearchResults{}, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var res SearchResults
	for rows.Next() {
		var (
			content  string
			course   string
			lesson   sql.NullInt32
			distance float64
		)
		if err := rows.Scan(&content, &course, &lesson, &distance); err != nil {
			return SearchResults{}, fmt.Errorf("scan chunk row: %w", err)
		}
		meta := map[string]any{"course_title": course}
		if lesson.Valid {
			meta["lesson_number"] = int(lesson.Int32)
		}
		res.Documents = append(res.Documents, content)
		res.Metadata = append(res.Metadata, meta)
		res.Distances = append(res.Distances, distance)
	}
	if err := rows.Err(); err != nil {
		return SearchResults{}, fmt.Errorf("iterate chunk rows: %w", err)
	}

	s.logger.Debug("search complete", "query_len", len(query), "course", courseTitle, "hits", len(res.Documents))
	return res, nil
}

// resolveCourseTitle maps a possibly partial or misspelled course name to a
// stored title: substring match first, nearest title embedding otherwise.
// Returns "" when nothing plausible exists.
func (s *Store) resolveCourseTitle(ctx context.Context, name string) (string, error) {
	var title string
	err := s.pool.QueryRow(ctx,
		`SELECT title FROM courses WHERE title ILIKE '%' || $1 || '%' ORDER BY length(title) LIMIT 1`,
		name).Scan(&title)
	if err == nil {
		return title, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("resolve course by name: %w", err)
	}

	vecs, err := s.embedder.Embed(ctx, []string{name})
	if err != nil {
		return "", fmt.Errorf("embed course name: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`SELECT title FROM courses ORDER BY title_embedding <=> $1 LIMIT 1`,
		pgvector.NewVector(vecs[0])).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve course by embedding: %w", err)
	}
	return title, nil
}

// GetCourseMetadata returns the outline of the course best matching name, or
// nil when no course matches.
func (s *Store) GetCourseMetadata(ctx context.Context, name string) (*CourseMetadata, error) {
	title, err := s.resolveCourseTitle(ctx, name)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, nil
	}

	meta := &CourseMetadata{Title: title}
	err = s.pool.QueryRow(ctx,
		`SELECT link, instructor FROM courses WHERE title = $1`, title).
		Scan(&meta.Link, &meta.Instructor)
	if err != nil {
		return nil, fmt.Errorf("load course %q: %w", title, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT lesson_number, title, link FROM lessons WHERE course_title = $1 ORDER BY lesson_number`,
		title)
	if err != nil {
		return nil, fmt.Errorf("load lessons for %q: %w", title, err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.Number, &l.Title, &l.Link); err != nil {
			return nil, fmt.Errorf("scan lesson row: %w", err)
		}
		meta.Lessons = append(meta.Lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson rows: %w", err)
	}
	return meta, nil
}

// GetLessonLink returns the stored link for a lesson, or "" when absent.
func (s *Store) GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	var link string
	err := s.pool.QueryRow(ctx,
		`SELECT link FROM lessons WHERE course_title = $1 AND lesson_number = $2`,
		courseTitle, lessonNumber).Scan(&link)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load lesson link: %w", err)
	}
	return link, nil
}

// AddCourse upserts a course and its outline. The title is embedded so that
// later course-name filters can resolve fuzzily.
func (s *Store) AddCourse(ctx context.Context, c Course) error {
	vecs, err := s.embedder.Embed(ctx, []string{c.Title})
	if err != nil {
		return fmt.Errorf("embed course title: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO courses (title, link, instructor, title_embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO UPDATE
		SET link = EXCLUDED.link, instructor = EXCLUDED.instructor, title_embedding = EXCLUDED.title_embedding`,
		c.Title, c.Link, c.Instructor, pgvector.NewVector(vecs[0]))
	if err != nil {
		return fmt.Errorf("upsert course %q: %w", c.Title, err)
	}

	for _, l := range c.Lessons {
		_, err = tx.Exec(ctx, `
			INSERT INTO lessons (course_title, lesson_number, title, link)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (course_title, lesson_number) DO UPDATE
			SET title = EXCLUDED.title, link = EXCLUDED.link`,
			c.Title, l.Number, l.Title, l.Link)
		if err != nil {
			return fmt.Errorf("upsert lesson %d of %q: %w", l.Number, c.Title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit course %q: %w", c.Title, err)
	}
	s.logger.Info("course stored", "title", c.Title, "lessons", len(c.Lessons))
	return nil
}

// AddChunks embeds and inserts content chunks for a course, batching
// embedding requests.
func (s *Store) AddChunks(ctx context.Context, courseTitle string, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}

		pgBatch := &pgx.Batch{}
		for i, c := range batch {
			var lessonArg any
			if c.LessonNumber != nil {
				lessonArg = *c.LessonNumber
			}
			pgBatch.Queue(`
				INSERT INTO chunks (course_title, lesson_number, chunk_index, content, embedding)
				VALUES ($1, $2, $3, $4, $5)`,
				courseTitle, lessonArg, c.Index, c.Content, pgvector.NewVector(vecs[i]))
		}
		if err := s.pool.SendBatch(ctx, pgBatch).Close(); err != nil {
			return fmt.Errorf("insert chunk batch: %w", err)
		}
	}
	s.logger.Info("chunks stored", "course", courseTitle, "count", len(chunks))
	return nil
}

// CourseCount returns the number of stored courses.
func (s *Store) CourseCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// CourseTitles returns all stored course titles in alphabetical order.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan course title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course titles: %w", err)
	}
	return titles, nil
}
