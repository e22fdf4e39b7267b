// Package store persists articles and their stage revisions in SQLite.
//
// The store is deliberately dumb: it enforces the closed status set before
// any mutation, keeps revisions append-only, and returns rows sorted by
// creation time. All pipeline semantics (stage sequencing, verification,
// resume tie-breaks) live above it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bylinehq/byline/pkg/article"
)

// ErrNotFound is returned when an article does not exist.
var ErrNotFound = errors.New("article not found")

// ErrInvalidStatus is returned when a status transition names a value outside
// the closed status set. The database is never touched in that case.
var ErrInvalidStatus = errors.New("invalid article status")

// timeFormat keeps sub-second precision so revision ordering is stable even
// within one second. The fractional part is fixed-width (unlike RFC3339Nano,
// which trims trailing zeros) so lexicographic ORDER BY matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed article archive. Safe for concurrent use; SQLite
// serialises writers internally.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database. Implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateParams carries the caller-supplied fields for a new article.
type CreateParams struct {
	Prompt        string
	TargetLength  article.Length
	ResearchScope article.Scope
}

// CreateArticle inserts a new article in the pending state and returns it.
// The ID, title, and timestamps are assigned here.
func (s *Store) CreateArticle(ctx context.Context, params CreateParams) (*article.Article, error) {
	now := time.Now().UTC()
	a := &article.Article{
		ID:            uuid.New().String(),
		Title:         article.TitleForPrompt(params.Prompt),
		Prompt:        params.Prompt,
		TargetLength:  params.TargetLength,
		ResearchScope: params.ResearchScope,
		Status:        article.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid article: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, prompt, target_length, research_scope, status, current_agent, status_message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, '', '', ?, ?)`,
		a.ID, a.Title, a.Prompt, string(a.TargetLength), string(a.ResearchScope),
		string(a.Status), now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return a, nil
}

// GetArticle retrieves an article by ID. Returns ErrNotFound when absent.
func (s *Store) GetArticle(ctx context.Context, id string) (*article.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, prompt, target_length, research_scope, status, current_agent, status_message, created_at, updated_at
		 FROM articles WHERE id = ?`, id)

	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return a, nil
}

// UpdateStatus sets the article's status and current agent. An empty agent
// explicitly clears the column (completion leaves no assigned role). The
// status is validated against the closed set before any write; an unknown
// status returns ErrInvalidStatus without mutating anything.
func (s *Store) UpdateStatus(ctx context.Context, id string, status article.Status, agent article.Role) error {
	if err := status.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET status = ?, current_agent = ?, updated_at = ? WHERE id = ?`,
		string(status), string(agent), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update article status: %w", err)
	}

	return requireRow(res, id)
}

// SetError demotes the article to the error status and records the
// diagnostic message. The current agent is left untouched so the report can
// still show which role was active when the run failed.
func (s *Store) SetError(ctx context.Context, id string, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET status = ?, status_message = ?, updated_at = ? WHERE id = ?`,
		string(article.StatusError), message, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set error status: %w", err)
	}

	return requireRow(res, id)
}

// AppendRevision records one stage's output for an article. Revisions are
// append-only; nothing ever updates or deletes them.
func (s *Store) AppendRevision(ctx context.Context, articleID string, content string, agent article.Role, stage article.Stage) (*article.Revision, error) {
	if err := stage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid revision: %w", err)
	}
	if err := agent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid revision: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO article_revisions (article_id, stage, agent, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		articleID, string(stage), string(agent), content, now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append revision: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read revision id: %w", err)
	}

	return &article.Revision{
		ID:        id,
		ArticleID: articleID,
		Stage:     stage,
		Agent:     agent,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// ListRevisions returns all revisions for an article ordered by creation
// time, then insertion order for same-timestamp rows.
func (s *Store) ListRevisions(ctx context.Context, articleID string) ([]article.Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, article_id, stage, agent, content, created_at
		 FROM article_revisions WHERE article_id = ? ORDER BY created_at, id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []article.Revision
	for rows.Next() {
		var (
			rev       article.Revision
			stage     string
			agent     string
			createdAt string
		)
		if err := rows.Scan(&rev.ID, &rev.ArticleID, &stage, &agent, &rev.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		rev.Stage = article.Stage(stage)
		rev.Agent = article.Role(agent)
		if rev.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse revision timestamp: %w", err)
		}
		revisions = append(revisions, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revisions: %w", err)
	}

	return revisions, nil
}

// ListByStatus returns all articles currently in the given status, oldest
// first. Used by the reconciliation sweep and the list command.
func (s *Store) ListByStatus(ctx context.Context, status article.Status) ([]article.Article, error) {
	if err := status.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	return s.queryArticles(ctx,
		`SELECT id, title, prompt, target_length, research_scope, status, current_agent, status_message, created_at, updated_at
		 FROM articles WHERE status = ? ORDER BY created_at`, string(status))
}

// ListArticles returns every article, newest first.
func (s *Store) ListArticles(ctx context.Context) ([]article.Article, error) {
	return s.queryArticles(ctx,
		`SELECT id, title, prompt, target_length, research_scope, status, current_agent, status_message, created_at, updated_at
		 FROM articles ORDER BY created_at DESC`)
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...any) ([]article.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []article.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*article.Article, error) {
	var (
		a         article.Article
		length    string
		scope     string
		status    string
		agent     string
		createdAt string
		updatedAt string
	)

	err := row.Scan(&a.ID, &a.Title, &a.Prompt, &length, &scope, &status, &agent, &a.StatusMessage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.TargetLength = article.Length(length)
	a.ResearchScope = article.Scope(scope)
	a.Status = article.Status(status)
	a.CurrentAgent = article.Role(agent)

	if a.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &a, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}
