package core

import (
	"context"
	"fmt"
	"testing"

	"taskcore/internal/infra/persistence/memory"
	"taskcore/pkg/domain"
)

func testCatalog() FactorCatalog {
	return FactorCatalog{
		{ID: "sf-1", Stage: StageIdentification, Text: "identify the blocker"},
		{ID: "sf-1", Stage: StageDefinition, Text: "define the fix"},
		{ID: "sf-2", Stage: StageDelivery, Text: "ship it"},
	}
}

func TestEnsureSeededProvisionsCatalog(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, testCatalog())

	report, err := svc.EnsureSeeded(context.Background(), "P1")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.Seeded != 3 || report.Skipped != 0 || !report.Ok() {
		t.Fatalf("unexpected report: %+v", report)
	}

	tasks, err := store.ListTasks(context.Background(), "P1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 seeded tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Origin != OriginFactor || task.Completed {
			t.Fatalf("seeded task malformed: %+v", task)
		}
	}
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, testCatalog())
	ctx := context.Background()

	if _, err := svc.EnsureSeeded(ctx, "P1"); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	report, err := svc.EnsureSeeded(ctx, "P1")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if report.Seeded != 0 || report.Skipped != 3 {
		t.Fatalf("second run should skip everything: %+v", report)
	}

	tasks, _ := store.ListTasks(ctx, "P1")
	if len(tasks) != 3 {
		t.Fatalf("duplicate rows after reseed: %d", len(tasks))
	}
}

func TestEnsureSeededProjectsAreIndependent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, testCatalog())
	ctx := context.Background()

	if _, err := svc.EnsureSeeded(ctx, "P1"); err != nil {
		t.Fatalf("seed P1: %v", err)
	}
	report, err := svc.EnsureSeeded(ctx, "P2")
	if err != nil {
		t.Fatalf("seed P2: %v", err)
	}
	if report.Seeded != 3 {
		t.Fatalf("P2 seeding blocked by P1 rows: %+v", report)
	}
}

// failingSeedStore fails seeding for one factor id, leaving the rest intact.
type failingSeedStore struct {
	*memory.Store
	failSource string
}

func (s *failingSeedStore) SeedFactorTask(ctx context.Context, task Task) (bool, error) {
	if task.SourceID == s.failSource {
		return false, fmt.Errorf("constraint violation on %s", task.SourceID)
	}
	return s.Store.SeedFactorTask(ctx, task)
}

func TestEnsureSeededIsolatesFailures(t *testing.T) {
	store := &failingSeedStore{Store: memory.NewStore(), failSource: "sf-1"}
	svc := NewService(store, testCatalog())

	report, err := svc.EnsureSeeded(context.Background(), "P1")
	if err != nil {
		t.Fatalf("seed must not fail the batch: %v", err)
	}
	if report.Seeded != 1 || len(report.Failures) != 2 || report.Ok() {
		t.Fatalf("unexpected report: %+v", report)
	}
	for _, failure := range report.Failures {
		if failure.FactorID != "sf-1" {
			t.Fatalf("wrong factor reported: %+v", failure)
		}
	}

	tasks, _ := store.ListTasks(context.Background(), "P1")
	if len(tasks) != 1 || tasks[0].SourceID != "sf-2" {
		t.Fatalf("surviving triple not seeded: %+v", tasks)
	}
}

func TestEnsureSeededRequiresProject(t *testing.T) {
	svc := NewService(memory.NewStore(), testCatalog())
	if _, err := svc.EnsureSeeded(context.Background(), ""); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for empty project, got %v", err)
	}
}
