package domain

import (
	"testing"
	"time"
)

func strPtr(s string) *string          { return &s }
func boolPtr(b bool) *bool             { return &b }
func intPtr(i int) *int                { return &i }
func originPtr(o TaskOrigin) *TaskOrigin { return &o }

func baseTask() Task {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return Task{
		Base:      Base{ID: "f1", CreatedAt: created, UpdatedAt: created},
		ProjectID: "P1",
		Origin:    OriginFactor,
		SourceID:  "sf-42",
		Stage:     StageIdentification,
		Text:      "Confirm sponsor",
		Status:    "open",
	}
}

func TestApplyPatchMergesOnlyPresentFields(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	task := baseTask()
	patched := ApplyPatch(task, TaskPatch{Completed: boolPtr(true), Notes: strPtr("done in kickoff")}, now)

	if !patched.Completed {
		t.Fatalf("completed not applied")
	}
	if patched.Notes != "done in kickoff" {
		t.Fatalf("notes not applied: %q", patched.Notes)
	}
	if patched.Text != task.Text || patched.Status != task.Status || patched.Owner != task.Owner {
		t.Fatalf("untouched fields changed: %+v", patched)
	}
	if !patched.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not refreshed: %v", patched.UpdatedAt)
	}
	if !patched.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("created_at must not change")
	}
}

func TestApplyPatchPreservesProvenance(t *testing.T) {
	now := time.Now().UTC()
	task := baseTask()
	patch := TaskPatch{
		Completed: boolPtr(true),
		Origin:    originPtr(OriginCustom),
		SourceID:  strPtr("sf-999"),
	}
	patched := ApplyPatch(task, patch, now)
	if patched.Origin != OriginFactor {
		t.Fatalf("origin overwritten: %q", patched.Origin)
	}
	if patched.SourceID != "sf-42" {
		t.Fatalf("source id overwritten: %q", patched.SourceID)
	}
	if patched.ID != task.ID || patched.ProjectID != task.ProjectID {
		t.Fatalf("identity changed: %+v", patched.Base)
	}
}

func TestApplyPatchCompletionIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	task := baseTask()
	once := ApplyPatch(task, TaskPatch{Completed: boolPtr(true)}, now)
	twice := ApplyPatch(once, TaskPatch{Completed: boolPtr(true)}, now.Add(time.Minute))
	if once.Completed != twice.Completed {
		t.Fatalf("double application toggled completion: %v then %v", once.Completed, twice.Completed)
	}
	if twice.Status != task.Status {
		t.Fatalf("completion must not couple to status, got %q", twice.Status)
	}
}

func TestApplyPatchStatusIndependentOfCompletion(t *testing.T) {
	now := time.Now().UTC()
	task := baseTask()
	patched := ApplyPatch(task, TaskPatch{Status: strPtr("blocked")}, now)
	if patched.Completed {
		t.Fatalf("status change must not flip completion")
	}
	if patched.Status != "blocked" {
		t.Fatalf("status not applied: %q", patched.Status)
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(TaskPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
	if !(TaskPatch{Origin: originPtr(OriginCustom), SourceID: strPtr("x")}).Empty() {
		t.Fatalf("provenance-only patch carries no applicable change")
	}
	if (TaskPatch{Priority: intPtr(2)}).Empty() {
		t.Fatalf("priority patch is not empty")
	}
}
