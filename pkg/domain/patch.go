package domain

import "time"

// TaskPatch is a partial task update. Nil fields are left unchanged. The
// payload may carry origin or source values (clients re-send stale state);
// they are ignored so provenance can never be corrupted by an update.
type TaskPatch struct {
	Text      *string `json:"text,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Priority  *int    `json:"priority,omitempty"`
	Owner     *string `json:"owner,omitempty"`
	Status    *string `json:"status,omitempty"`
	Completed *bool   `json:"completed,omitempty"`

	// Accepted on the wire but never applied.
	Origin   *TaskOrigin `json:"origin,omitempty"`
	SourceID *string     `json:"source_id,omitempty"`
}

// Empty reports whether the patch carries no applicable change.
func (p TaskPatch) Empty() bool {
	return p.Text == nil && p.Notes == nil && p.Priority == nil &&
		p.Owner == nil && p.Status == nil && p.Completed == nil
}

// ApplyPatch merges patch onto task and returns the result. Identity,
// project scope, provenance, and creation time are preserved regardless of
// the patch contents; UpdatedAt is refreshed to now. Completion state and
// the status string are independent fields, each set only when the patch
// names it explicitly.
func ApplyPatch(task Task, patch TaskPatch, now time.Time) Task {
	if patch.Text != nil {
		task.Text = *patch.Text
	}
	if patch.Notes != nil {
		task.Notes = *patch.Notes
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Owner != nil {
		task.Owner = *patch.Owner
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = now
	return task
}
