// Package sqlite provides an embedded SQLite-backed TaskStore. The factor
// identity invariant is enforced by a partial unique index so concurrent
// seeding cannot produce duplicate rows.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.TaskStore = (*Store)(nil)

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
	completed  INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (project_id, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_factor_identity
	ON tasks(project_id, source_id, stage) WHERE origin = 'factor';
CREATE INDEX IF NOT EXISTS idx_tasks_project_created
	ON tasks(project_id, created_at);
`

// timeLayout is fixed width so lexicographic ordering of the TEXT column
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const taskColumns = `id, project_id, origin, source_id, stage, text, notes, priority, owner, status, completed, created_at, updated_at`

// Store persists task rows in a single SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if necessary) the SQLite database at path and
// applies the schema. An empty path defaults to taskcore.db in the working
// directory; use ":memory:" for an ephemeral database.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "taskcore.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// GetTask returns the task with the exact id within the project.
func (s *Store) GetTask(ctx context.Context, projectID, taskID string) (domain.Task, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? AND id = ?`,
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
		 WHERE project_id = ? AND origin = ? AND source_id = ?
		 ORDER BY created_at DESC, id DESC`,
		projectID, string(domain.OriginFactor), sourceID)
}

// FindTasksByIDPrefix returns tasks whose id begins with prefix, newest first.
func (s *Store) FindTasksByIDPrefix(ctx context.Context, projectID, prefix string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = ? AND id LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC, id DESC`,
		projectID, escapeLike(prefix)+"%")
}

// ListTasks returns every task in the project, newest first.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = ?
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
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertArgs(task)...); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// SeedFactorTask inserts a factor-origin task unless its natural key exists.
// The partial unique index is the arbiter, closing the check-then-insert
// race entirely.
func (s *Store) SeedFactorTask(ctx context.Context, task domain.Task) (bool, error) {
	if task.ProjectID == "" || task.ID == "" {
		return false, fmt.Errorf("seed task: project id and id required")
	}
	if task.Origin != domain.OriginFactor {
		return false, fmt.Errorf("seed task: origin must be %q, got %q", domain.OriginFactor, task.Origin)
	}
	task = stampNew(task)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		 SET text = ?, notes = ?, priority = ?, owner = ?, status = ?, completed = ?, updated_at = ?
		 WHERE project_id = ? AND id = ?`,
		task.Text, task.Notes, task.Priority, task.Owner, task.Status, boolToInt(task.Completed),
		task.UpdatedAt.UTC().Format(timeLayout),
		projectID, task.ID)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update task rows: %w", err)
	}
	return rows > 0, nil
}

// DeleteTask removes a task row; used by tests that race deletes against
// updates. Deletion is not part of the core contract.
func (s *Store) DeleteTask(ctx context.Context, projectID, taskID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE project_id = ? AND id = ?`, projectID, taskID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
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
	var origin string
	var stage string
	var completed int
	var createdAt, updatedAt string
	if err := row.Scan(&task.ID, &task.ProjectID, &origin, &task.SourceID, &stage,
		&task.Text, &task.Notes, &task.Priority, &task.Owner, &task.Status,
		&completed, &createdAt, &updatedAt); err != nil {
		return domain.Task{}, err
	}
	task.Origin = domain.TaskOrigin(origin)
	task.Stage = domain.Stage(stage)
	task.Completed = completed != 0
	var err error
	if task.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	if task.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("parse updated_at: %w", err)
	}
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
		boolToInt(task.Completed),
		task.CreatedAt.UTC().Format(timeLayout),
		task.UpdatedAt.UTC().Format(timeLayout),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
