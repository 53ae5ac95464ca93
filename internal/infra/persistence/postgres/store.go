// Package postgres provides a Postgres-backed TaskStore mirroring the
// sqlite semantics, with the factor identity invariant enforced by a
// partial unique index.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.TaskStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenTaskStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/taskcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT NOT NULL,
	project_id TEXT NOT NULL,
	origin     TEXT NOT NULL,
	source_id  TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	priority   INTEGER NOT NULL DEFAULT 0,
	owner      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT '',
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (project_id, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_factor_identity
	ON tasks(project_id, source_id, stage) WHERE origin = 'factor';
CREATE INDEX IF NOT EXISTS idx_tasks_project_created
	ON tasks(project_id, created_at);
`

const taskColumns = `id, project_id, origin, source_id, stage, text, notes, priority, owner, status, completed, created_at, updated_at`

// Store persists task rows in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), verifies connectivity, and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// GetTask returns the task with the exact id within the project.
func (s *Store) GetTask(ctx context.Context, projectID, taskID string) (domain.Task, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 AND id = $2`,
		projectID, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, false, nil
	}
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("get task: %w", err)
	}
	return task, true, nil
}

// FindFactorTasks returns factor-origin tasks matching sourceID, newest first.
func (s *Store) FindFactorTasks(ctx context.Context, projectID, sourceID string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = $1 AND origin = $2 AND source_id = $3
		 ORDER BY created_at DESC, id DESC`,
		projectID, string(domain.OriginFactor), sourceID)
}

// FindTasksByIDPrefix returns tasks whose id begins with prefix, newest first.
func (s *Store) FindTasksByIDPrefix(ctx context.Context, projectID, prefix string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = $1 AND id LIKE $2 ESCAPE '\'
		 ORDER BY created_at DESC, id DESC`,
		projectID, escapeLike(prefix)+"%")
}

// ListTasks returns every task in the project, newest first.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = $1
		 ORDER BY created_at DESC, id DESC`,
		projectID)
}

// InsertTask persists a new task row.
func (s *Store) InsertTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	if task.ProjectID == "" || task.ID == "" {
		return domain.Task{}, fmt.Errorf("insert task: project id and id required")
	}
	task = stampNew(task)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		insertArgs(task)...); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// SeedFactorTask inserts a factor-origin task unless its natural key exists.
// ON CONFLICT DO NOTHING lets the partial unique index arbitrate, so
// concurrent ensure calls cannot both win.
func (s *Store) SeedFactorTask(ctx context.Context, task domain.Task) (bool, error) {
	if task.ProjectID == "" || task.ID == "" {
		return false, fmt.Errorf("seed task: project id and id required")
	}
	if task.Origin != domain.OriginFactor {
		return false, fmt.Errorf("seed task: origin must be %q, got %q", domain.OriginFactor, task.Origin)
	}
	task = stampNew(task)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT DO NOTHING`,
		insertArgs(task)...)
	if err != nil {
		return false, fmt.Errorf("seed task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed task rows: %w", err)
	}
	return rows == 1, nil
}

// UpdateTask rewrites a task's mutable fields keyed by id, re-asserting the
// project scope in the predicate. Provenance columns are deliberately absent
// from the SET list.
func (s *Store) UpdateTask(ctx context.Context, projectID string, task domain.Task) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		 SET text = $1, notes = $2, priority = $3, owner = $4, status = $5, completed = $6, updated_at = $7
		 WHERE project_id = $8 AND id = $9`,
		task.Text, task.Notes, task.Priority, task.Owner, task.Status, task.Completed,
		task.UpdatedAt.UTC(), projectID, task.ID)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update task rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var task domain.Task
	var origin, stage string
	if err := row.Scan(&task.ID, &task.ProjectID, &origin, &task.SourceID, &stage,
		&task.Text, &task.Notes, &task.Priority, &task.Owner, &task.Status,
		&task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return domain.Task{}, err
	}
	task.Origin = domain.TaskOrigin(origin)
	task.Stage = domain.Stage(stage)
	return task, nil
}

func stampNew(task domain.Task) domain.Task {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.UpdatedAt = task.CreatedAt
	return task
}

func insertArgs(task domain.Task) []any {
	return []any{
		task.ID, task.ProjectID, string(task.Origin), task.SourceID, string(task.Stage),
		task.Text, task.Notes, task.Priority, task.Owner, task.Status,
		task.Completed, task.CreatedAt.UTC(), task.UpdatedAt.UTC(),
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
