package domain

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned when no task matches an identifier within the
// requested project. It is an ordinary outcome, never recovered by widening
// the search to other projects.
type ErrTaskNotFound struct {
	ProjectID string
	RawID     string
}

func (e ErrTaskNotFound) Error() string {
	return fmt.Sprintf("task %q not found in project %q", e.RawID, e.ProjectID)
}

// ErrTaskConflict is returned when a resolved task vanished before its update
// could be written (concurrent delete). Callers may retry the full
// resolve-then-apply sequence.
type ErrTaskConflict struct {
	ProjectID string
	TaskID    string
}

func (e ErrTaskConflict) Error() string {
	return fmt.Sprintf("task %q in project %q changed concurrently", e.TaskID, e.ProjectID)
}

// ErrMalformedIdentifier is returned when a raw identifier is structurally
// invalid before any lookup is attempted. It indicates a client bug rather
// than a missing resource.
type ErrMalformedIdentifier struct {
	RawID string
}

func (e ErrMalformedIdentifier) Error() string {
	return fmt.Sprintf("malformed task identifier %q", e.RawID)
}

// IsNotFound reports whether err is a task not-found error.
func IsNotFound(err error) bool {
	var nf ErrTaskNotFound
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a concurrent-modification conflict.
func IsConflict(err error) bool {
	var c ErrTaskConflict
	return errors.As(err, &c)
}

// IsMalformedIdentifier reports whether err flags a structurally invalid
// identifier.
func IsMalformedIdentifier(err error) bool {
	var m ErrMalformedIdentifier
	return errors.As(err, &m)
}
