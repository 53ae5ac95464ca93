package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"
	"time"

	"taskcore/internal/infra/persistence/postgres/testutil"
	"taskcore/pkg/domain"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreAppliesSchema(t *testing.T) {
	_, conn := newStubStore(t)
	var sawTable, sawIdentityIndex bool
	for _, stmt := range conn.Execs {
		upper := strings.ToUpper(stmt)
		if strings.Contains(upper, "CREATE TABLE") {
			sawTable = true
		}
		if strings.Contains(stmt, "idx_tasks_factor_identity") && strings.Contains(stmt, "WHERE origin = 'factor'") {
			sawIdentityIndex = true
		}
	}
	if !sawTable {
		t.Fatalf("expected schema DDL, got execs: %v", conn.Execs)
	}
	if !sawIdentityIndex {
		t.Fatalf("factor identity index missing from DDL: %v", conn.Execs)
	}
}

func TestNewStoreSurfacesPingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.PingErr = fmt.Errorf("refused")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "ignored"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func taskRow(id, project string) []driver.Value {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, project, "factor", "sf-42", "identification",
		"factor sf-42", "", int64(0), "", "", false, now, now,
	}
}

func taskResultColumns() []string {
	return []string{"id", "project_id", "origin", "source_id", "stage", "text", "notes", "priority", "owner", "status", "completed", "created_at", "updated_at"}
}

func TestGetTaskScansRow(t *testing.T) {
	store, conn := newStubStore(t)
	conn.Columns = taskResultColumns()
	conn.Rows = [][]driver.Value{taskRow("f1", "P1")}

	task, ok, err := store.GetTask(context.Background(), "P1", "f1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if task.Origin != domain.OriginFactor || task.SourceID != "sf-42" || task.Stage != domain.StageIdentification {
		t.Fatalf("scan mismatch: %+v", task)
	}
}

func TestGetTaskMissingRowIsNotAnError(t *testing.T) {
	store, conn := newStubStore(t)
	conn.Columns = taskResultColumns()
	conn.Rows = nil

	_, ok, err := store.GetTask(context.Background(), "P1", "missing")
	if err != nil {
		t.Fatalf("missing row must not error: %v", err)
	}
	if ok {
		t.Fatalf("expected not found")
	}
}

func TestSeedFactorTaskConflictReportsNoInsert(t *testing.T) {
	store, conn := newStubStore(t)
	conn.SeedConflict = true

	task := domain.Task{
		Base: domain.Base{ID: "f1"}, ProjectID: "P1",
		Origin: domain.OriginFactor, SourceID: "sf-1", Stage: domain.StageDefinition,
	}
	inserted, err := store.SeedFactorTask(context.Background(), task)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted {
		t.Fatalf("conflicting seed must report no insert")
	}
	last := conn.Execs[len(conn.Execs)-1]
	if !strings.Contains(last, "ON CONFLICT DO NOTHING") {
		t.Fatalf("seed must rely on the unique index arbiter: %s", last)
	}
}

func TestSeedFactorTaskRejectsCustomOrigin(t *testing.T) {
	store, _ := newStubStore(t)
	task := domain.Task{Base: domain.Base{ID: "c1"}, ProjectID: "P1", Origin: domain.OriginCustom}
	if _, err := store.SeedFactorTask(context.Background(), task); err == nil {
		t.Fatalf("expected origin rejection")
	}
}

func TestUpdateTaskZeroRowsSignalsVanishedRow(t *testing.T) {
	store, conn := newStubStore(t)
	conn.UpdateRows = 0

	task := domain.Task{Base: domain.Base{ID: "f1", UpdatedAt: time.Now().UTC()}, ProjectID: "P1"}
	ok, err := store.UpdateTask(context.Background(), "P1", task)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok {
		t.Fatalf("zero affected rows must report false")
	}
}

func TestEveryTaskStatementCarriesProjectScope(t *testing.T) {
	store, conn := newStubStore(t)
	conn.Columns = taskResultColumns()
	ctx := context.Background()

	_, _, _ = store.GetTask(ctx, "P1", "f1")
	_, _ = store.FindFactorTasks(ctx, "P1", "sf-1")
	_, _ = store.FindTasksByIDPrefix(ctx, "P1", "2f565bf9")
	_, _ = store.ListTasks(ctx, "P1")
	_, _ = store.UpdateTask(ctx, "P1", domain.Task{Base: domain.Base{ID: "f1"}, ProjectID: "P1"})

	statements := append(append([]string{}, conn.Queries...), conn.Execs...)
	for _, stmt := range statements {
		upper := strings.ToUpper(stmt)
		if !strings.Contains(upper, "TASKS") || strings.Contains(upper, "CREATE") {
			continue
		}
		if !strings.Contains(stmt, "project_id = $") {
			t.Fatalf("statement lacks project scope: %s", stmt)
		}
	}
}

func TestUpdateNeverTouchesProvenanceColumns(t *testing.T) {
	store, conn := newStubStore(t)
	task := domain.Task{Base: domain.Base{ID: "f1", UpdatedAt: time.Now().UTC()}, ProjectID: "P1", Origin: domain.OriginFactor, SourceID: "sf-1"}
	if _, err := store.UpdateTask(context.Background(), "P1", task); err != nil {
		t.Fatalf("update: %v", err)
	}
	last := conn.Execs[len(conn.Execs)-1]
	set := last[strings.Index(last, "SET"):strings.Index(last, "WHERE")]
	if strings.Contains(set, "origin") || strings.Contains(set, "source_id") || strings.Contains(set, "created_at") {
		t.Fatalf("provenance columns in SET list: %s", set)
	}
}
