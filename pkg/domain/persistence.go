package domain

import "context"

// TaskStore is the minimal abstraction over durable task storage. Every
// lookup and mutation takes the owning project identifier; the interface
// deliberately cannot express an unscoped task query, so a cross-project
// fallback is unrepresentable at the type level rather than a discipline
// each call site must remember.
//
// Candidate-returning finders order results most-recently-created first so
// callers can select deterministically when historical data violates a
// uniqueness invariant.
type TaskStore interface {
	// GetTask returns the task with the exact id within the project.
	GetTask(ctx context.Context, projectID, taskID string) (Task, bool, error)

	// FindFactorTasks returns factor-origin tasks in the project whose
	// source identifier equals sourceID, newest first.
	FindFactorTasks(ctx context.Context, projectID, sourceID string) ([]Task, error)

	// FindTasksByIDPrefix returns tasks in the project whose id begins
	// with prefix, newest first.
	FindTasksByIDPrefix(ctx context.Context, projectID, prefix string) ([]Task, error)

	// ListTasks returns every task in the project, newest first.
	ListTasks(ctx context.Context, projectID string) ([]Task, error)

	// InsertTask persists a new task. The task's ProjectID must be set.
	InsertTask(ctx context.Context, task Task) (Task, error)

	// SeedFactorTask inserts a factor-origin task unless a row with the
	// same (project, source, stage) identity already exists. It reports
	// whether a row was inserted. The at-most-one guarantee holds under
	// concurrent calls via a storage-level uniqueness constraint, not an
	// application-side existence check.
	SeedFactorTask(ctx context.Context, task Task) (bool, error)

	// UpdateTask rewrites the task's mutable fields, keyed by id and
	// re-asserting the project scope even though the row was already
	// resolved. It reports whether a row was written; false means the
	// task vanished between resolution and write.
	UpdateTask(ctx context.Context, projectID string, task Task) (bool, error)
}
