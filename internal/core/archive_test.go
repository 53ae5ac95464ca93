package core

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"taskcore/internal/blob"
	"taskcore/internal/infra/persistence/memory"
)

func TestArchiveSnapshotStoresTaskList(t *testing.T) {
	archive := blob.NewMemory()
	fixed := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	svc, store := newTestService(t, WithArchiveStore(archive), WithClock(fixedClock{fixed}))

	insertTask(t, store, factorTask("f1", "P1", "sf-1", fixed.Add(-time.Hour)))
	insertTask(t, store, factorTask("f2", "P1", "sf-2", fixed.Add(-time.Minute)))

	info, err := svc.ArchiveSnapshot(context.Background(), "P1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !strings.HasPrefix(info.Key, "snapshots/P1/") || !strings.HasSuffix(info.Key, ".json") {
		t.Fatalf("unexpected key %q", info.Key)
	}
	if info.Metadata["project_id"] != "P1" || info.Metadata["task_count"] != "2" {
		t.Fatalf("unexpected metadata: %+v", info.Metadata)
	}

	_, rc, err := archive.Get(context.Background(), info.Key)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)

	var snapshot TaskSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.ProjectID != "P1" || snapshot.Count != 2 || len(snapshot.Tasks) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.Tasks[0].ID != "f2" {
		t.Fatalf("snapshot should list newest first: %+v", snapshot.Tasks)
	}
}

func TestArchiveSnapshotCarriesLastSeedReport(t *testing.T) {
	archive := blob.NewMemory()
	svc := NewService(memory.NewStore(), testCatalog(), WithArchiveStore(archive))

	report, err := svc.EnsureSeeded(context.Background(), "P1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if report.Seeded == 0 {
		t.Fatalf("expected seeded tasks, got %+v", report)
	}

	info, err := svc.ArchiveSnapshot(context.Background(), "P1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	_, rc, err := archive.Get(context.Background(), info.Key)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)

	var snapshot TaskSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Seeding == nil || snapshot.Seeding.Seeded != report.Seeded {
		t.Fatalf("snapshot missing seed report: %+v", snapshot.Seeding)
	}

	svc2, _ := newTestService(t, WithArchiveStore(archive))
	info2, err := svc2.ArchiveSnapshot(context.Background(), "P2")
	if err != nil {
		t.Fatalf("archive without ensure: %v", err)
	}
	_, rc2, err := archive.Get(context.Background(), info2.Key)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	defer rc2.Close()
	raw2, _ := io.ReadAll(rc2)
	var snapshot2 TaskSnapshot
	if err := json.Unmarshal(raw2, &snapshot2); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot2.Seeding != nil {
		t.Fatalf("expected no seed report before any ensure, got %+v", snapshot2.Seeding)
	}
}

func TestArchiveSnapshotRequiresStore(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.ArchiveSnapshot(context.Background(), "P1"); err == nil {
		t.Fatalf("expected missing blob store error")
	}
}
