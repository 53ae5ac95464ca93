// Package memory provides an in-memory TaskStore used by tests and
// ephemeral deployments. It mirrors the relational backends' semantics,
// including the factor-identity uniqueness guarantee.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.TaskStore = (*Store)(nil)

// Store keeps task rows per project behind a single mutex. Reads return
// copies so callers can never alias shared state.
type Store struct {
	mu       sync.RWMutex
	projects map[string]map[string]domain.Task
	// identity guards the (project, source, stage) natural key for
	// factor-origin rows, standing in for the relational backends'
	// unique index.
	identity map[string]string
	nowFn    func() time.Time
}

// NewStore constructs an empty in-memory task store.
func NewStore() *Store {
	return &Store{
		projects: make(map[string]map[string]domain.Task),
		identity: make(map[string]string),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

func identityKey(projectID, sourceID string, stage domain.Stage) string {
	return projectID + "\x00" + sourceID + "\x00" + string(stage)
}

// GetTask returns the task with the exact id within the project.
func (s *Store) GetTask(_ context.Context, projectID, taskID string) (domain.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.projects[projectID][taskID]
	return task, ok, nil
}

// FindFactorTasks returns factor-origin tasks matching sourceID, newest first.
func (s *Store) FindFactorTasks(_ context.Context, projectID, sourceID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for _, task := range s.projects[projectID] {
		if task.Origin == domain.OriginFactor && task.SourceID == sourceID {
			out = append(out, task)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// FindTasksByIDPrefix returns tasks whose id begins with prefix, newest first.
func (s *Store) FindTasksByIDPrefix(_ context.Context, projectID, prefix string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for id, task := range s.projects[projectID] {
		if strings.HasPrefix(id, prefix) {
			out = append(out, task)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListTasks returns every task in the project, newest first.
func (s *Store) ListTasks(_ context.Context, projectID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.projects[projectID]))
	for _, task := range s.projects[projectID] {
		out = append(out, task)
	}
	sortNewestFirst(out)
	return out, nil
}

// InsertTask persists a new task row. Unlike SeedFactorTask, it does not
// enforce the factor natural key: a factor row inserted here takes over the
// (project, source, stage) identity slot even when one exists. Tests use
// this to model legacy data with historical duplicates, which the relational
// backends can also contain from before their unique index existed.
func (s *Store) InsertTask(_ context.Context, task domain.Task) (domain.Task, error) {
	if task.ProjectID == "" {
		return domain.Task{}, fmt.Errorf("insert task: project id required")
	}
	if task.ID == "" {
		return domain.Task{}, fmt.Errorf("insert task: id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.projects[task.ProjectID]
	if !ok {
		rows = make(map[string]domain.Task)
		s.projects[task.ProjectID] = rows
	}
	if _, exists := rows[task.ID]; exists {
		return domain.Task{}, fmt.Errorf("insert task: %q already exists in project %q", task.ID, task.ProjectID)
	}
	now := s.nowFn()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = task.CreatedAt
	rows[task.ID] = task
	if task.Origin == domain.OriginFactor {
		s.identity[identityKey(task.ProjectID, task.SourceID, task.Stage)] = task.ID
	}
	return task, nil
}

// SeedFactorTask inserts a factor-origin task unless its natural key exists.
func (s *Store) SeedFactorTask(_ context.Context, task domain.Task) (bool, error) {
	if task.ProjectID == "" || task.ID == "" {
		return false, fmt.Errorf("seed task: project id and id required")
	}
	if task.Origin != domain.OriginFactor {
		return false, fmt.Errorf("seed task: origin must be %q, got %q", domain.OriginFactor, task.Origin)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey(task.ProjectID, task.SourceID, task.Stage)
	if _, exists := s.identity[key]; exists {
		return false, nil
	}
	rows, ok := s.projects[task.ProjectID]
	if !ok {
		rows = make(map[string]domain.Task)
		s.projects[task.ProjectID] = rows
	}
	if _, exists := rows[task.ID]; exists {
		return false, fmt.Errorf("seed task: %q already exists in project %q", task.ID, task.ProjectID)
	}
	now := s.nowFn()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = task.CreatedAt
	rows[task.ID] = task
	s.identity[key] = task.ID
	return true, nil
}

// UpdateTask rewrites a task's mutable fields, keyed by id and project.
// Provenance and creation time of the stored row are retained regardless of
// the incoming value.
func (s *Store) UpdateTask(_ context.Context, projectID string, task domain.Task) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.projects[projectID]
	if !ok {
		return false, nil
	}
	current, ok := rows[task.ID]
	if !ok {
		return false, nil
	}
	current.Text = task.Text
	current.Notes = task.Notes
	current.Priority = task.Priority
	current.Owner = task.Owner
	current.Status = task.Status
	current.Completed = task.Completed
	current.UpdatedAt = task.UpdatedAt
	rows[task.ID] = current
	return true, nil
}

// DeleteTask removes a task row; it exists for tests that need to race a
// delete against an update. Deletion is not part of the core contract.
func (s *Store) DeleteTask(_ context.Context, projectID, taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.projects[projectID]
	if !ok {
		return false
	}
	task, ok := rows[taskID]
	if !ok {
		return false
	}
	delete(rows, taskID)
	if task.Origin == domain.OriginFactor {
		delete(s.identity, identityKey(projectID, task.SourceID, task.Stage))
	}
	return true
}

func sortNewestFirst(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}
