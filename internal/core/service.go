package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"taskcore/internal/blob"
	"taskcore/pkg/domain"
)

// Service exposes the resolve, update, and seeding operations over a
// project-scoped task store.
type Service struct {
	store   TaskStore
	catalog FactorCatalog
	archive blob.Store

	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	newID   func() string

	seedMu   sync.Mutex
	lastSeed map[string]SeedReport
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger overrides the no-op default logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the system clock.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMetricsRecorder attaches a metrics sink for operation outcomes.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithTracer attaches a tracer wrapping every service operation.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// WithArchiveStore attaches a blob store used by ArchiveSnapshot.
func WithArchiveStore(store blob.Store) ServiceOption {
	return func(s *Service) { s.archive = store }
}

// WithIDGenerator overrides row id generation, used to pin ids in tests.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a service over the given store and factor catalog.
func NewService(store TaskStore, catalog FactorCatalog, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		logger:  noopLogger{},
		clock:   systemClock{},
		newID:   uuid.NewString,

		lastSeed: make(map[string]SeedReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying task store.
func (s *Service) Store() TaskStore { return s.store }

// run wraps an operation with tracing, metrics, and outcome logging.
func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := s.clock.Now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	err := fn(ctx)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, s.clock.Now().Sub(start))
	}
	if err != nil {
		s.logger.Warn("operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("operation complete", "operation", operation)
	}
	return err
}

// ListTasks returns every task in the project, newest first.
func (s *Service) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	var tasks []Task
	err := s.run(ctx, "list_tasks", func(ctx context.Context) error {
		var err error
		tasks, err = s.store.ListTasks(ctx, projectID)
		return err
	})
	return tasks, err
}

// CreateTask persists a new user-authored task in the project. Origin
// defaults to custom; a caller-supplied id is rejected so row identity stays
// under service control.
func (s *Service) CreateTask(ctx context.Context, projectID string, task Task) (Task, error) {
	var created Task
	err := s.run(ctx, "create_task", func(ctx context.Context) error {
		if projectID == "" {
			return fmt.Errorf("create task: project id required")
		}
		if task.ID != "" {
			return fmt.Errorf("create task: id is assigned by the service")
		}
		if strings.TrimSpace(task.Text) == "" {
			return fmt.Errorf("create task: text required")
		}
		if task.Origin == "" {
			task.Origin = OriginCustom
		}
		if task.Origin == OriginFactor {
			return fmt.Errorf("create task: factor tasks are seeded, not created")
		}
		task.ID = s.newID()
		task.ProjectID = projectID
		now := s.clock.Now()
		task.CreatedAt = now
		task.UpdatedAt = now
		var err error
		created, err = s.store.InsertTask(ctx, task)
		return err
	})
	return created, err
}

// GetTask fetches a task by its exact row id within the project.
func (s *Service) GetTask(ctx context.Context, projectID, taskID string) (Task, error) {
	var task Task
	err := s.run(ctx, "get_task", func(ctx context.Context) error {
		found, ok, err := s.store.GetTask(ctx, projectID, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTaskNotFound{ProjectID: projectID, RawID: taskID}
		}
		task = found
		return nil
	})
	return task, err
}
