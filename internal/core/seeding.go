package core

import (
	"context"

	"taskcore/pkg/domain"
)

// EnsureSeeded provisions the project with one factor-origin task per
// canonical catalog entry. It is idempotent: entries whose natural key
// (projectID, sourceId, stage) already exists are skipped, with the store's
// unique index arbitrating concurrent ensure calls. A failure on one entry
// never aborts the rest of the batch; shortfalls are collected in the report
// and logged, and the method only errors when given no project.
func (s *Service) EnsureSeeded(ctx context.Context, projectID string) (SeedReport, error) {
	report := SeedReport{ProjectID: projectID}
	err := s.run(ctx, "ensure_seeded", func(ctx context.Context) error {
		if projectID == "" {
			return domain.ErrTaskNotFound{ProjectID: projectID, RawID: ""}
		}
		for _, factor := range s.catalog {
			task := Task{
				ProjectID: projectID,
				Origin:    OriginFactor,
				SourceID:  factor.ID,
				Stage:     factor.Stage,
				Text:      factor.Text,
				Completed: false,
			}
			task.ID = s.newID()
			now := s.clock.Now()
			task.CreatedAt = now
			task.UpdatedAt = now
			inserted, err := s.store.SeedFactorTask(ctx, task)
			if err != nil {
				report.Failures = append(report.Failures, SeedFailure{
					FactorID: factor.ID,
					Stage:    factor.Stage,
					Reason:   err.Error(),
				})
				continue
			}
			if inserted {
				report.Seeded++
			} else {
				report.Skipped++
			}
		}
		report.At = s.clock.Now()
		s.seedMu.Lock()
		s.lastSeed[projectID] = report
		s.seedMu.Unlock()
		if !report.Ok() {
			s.logger.Warn("seeding incomplete",
				"project_id", projectID,
				"seeded", report.Seeded,
				"skipped", report.Skipped,
				"failed", len(report.Failures))
		}
		return nil
	})
	return report, err
}

// lastSeedReport returns the most recent seed report recorded for the
// project, if any ensure call has run in this process.
func (s *Service) lastSeedReport(projectID string) (SeedReport, bool) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	report, ok := s.lastSeed[projectID]
	return report, ok
}
