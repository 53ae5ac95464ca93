package core

import (
	"context"

	"taskcore/pkg/domain"
)

// UpdateTask resolves rawID within the project, merges the patch onto the
// resolved task, and writes the result back under the project scope. The
// response always carries the resolved row's true id regardless of which
// identifier form the caller used.
//
// Provenance fields in the patch are discarded before the merge, so a client
// re-sending stale origin or sourceId data cannot corrupt the row. A write
// that affects zero rows means the task vanished between resolve and apply
// and surfaces as a conflict, distinct from not found, so callers can retry
// the whole sequence.
func (s *Service) UpdateTask(ctx context.Context, projectID, rawID string, patch TaskPatch) (Resolution, error) {
	var res Resolution
	err := s.run(ctx, "update_task", func(ctx context.Context) error {
		resolved, err := s.resolve(ctx, projectID, rawID)
		if err != nil {
			return err
		}
		s.recordResolution(ctx, resolved)
		updated := domain.ApplyPatch(resolved.Task, patch, s.clock.Now())
		ok, err := s.store.UpdateTask(ctx, projectID, updated)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTaskConflict{ProjectID: projectID, TaskID: resolved.Task.ID}
		}
		res = Resolution{Task: updated, Strategy: resolved.Strategy, Warnings: resolved.Warnings}
		return nil
	})
	return res, err
}
