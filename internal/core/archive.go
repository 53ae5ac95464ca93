package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"taskcore/internal/blob"
)

// TaskSnapshot is the archived representation of one project's task list.
// Seeding carries the last in-process seed report so a partial seeding
// failure stays visible in the audit trail.
type TaskSnapshot struct {
	ProjectID string      `json:"project_id"`
	TakenAt   string      `json:"taken_at"`
	Count     int         `json:"count"`
	Tasks     []Task      `json:"tasks"`
	Seeding   *SeedReport `json:"seeding,omitempty"`
}

// ArchiveSnapshot serializes the project's current task list and stores it in
// the configured blob store. The returned info carries the blob key, of the
// form snapshots/<projectID>/<RFC3339 timestamp>.json.
func (s *Service) ArchiveSnapshot(ctx context.Context, projectID string) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, "archive_snapshot", func(ctx context.Context) error {
		if s.archive == nil {
			return fmt.Errorf("archive snapshot: no blob store configured")
		}
		tasks, err := s.store.ListTasks(ctx, projectID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		snapshot := TaskSnapshot{
			ProjectID: projectID,
			TakenAt:   now.Format("2006-01-02T15:04:05Z07:00"),
			Count:     len(tasks),
			Tasks:     tasks,
		}
		if report, ok := s.lastSeedReport(projectID); ok {
			snapshot.Seeding = &report
		}
		payload, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("archive snapshot: encode: %w", err)
		}
		key := fmt.Sprintf("snapshots/%s/%s.json", projectID, now.Format("20060102T150405Z"))
		info, err = s.archive.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"project_id": projectID,
				"task_count": fmt.Sprintf("%d", len(tasks)),
			},
		})
		return err
	})
	return info, err
}
