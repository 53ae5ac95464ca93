package core

import (
	"context"

	"taskcore/pkg/domain"
)

// ResolveTask locates the unique task in projectID matching rawID, trying
// progressively looser strategies. Every candidate query carries the project
// scope; a miss never widens the search to other projects.
//
// Order: exact row id, then factor sourceId, then both again with the
// canonicalized identifier, then a scoped id-prefix search for legacy
// compound ids. The first strategy producing candidates wins.
func (s *Service) ResolveTask(ctx context.Context, projectID, rawID string) (Resolution, error) {
	var res Resolution
	err := s.run(ctx, "resolve_task", func(ctx context.Context) error {
		var err error
		res, err = s.resolve(ctx, projectID, rawID)
		if err == nil {
			s.recordResolution(ctx, res)
		}
		return err
	})
	return res, err
}

// recordResolution forwards strategy outcomes to metrics sinks that track
// them.
func (s *Service) recordResolution(ctx context.Context, res Resolution) {
	if rec, ok := s.metrics.(ResolutionRecorder); ok {
		rec.ObserveResolution(ctx, res.Strategy, len(res.Warnings) > 0)
	}
}

func (s *Service) resolve(ctx context.Context, projectID, rawID string) (Resolution, error) {
	notFound := domain.ErrTaskNotFound{ProjectID: projectID, RawID: rawID}
	if projectID == "" || rawID == "" {
		return Resolution{}, notFound
	}

	if task, ok, err := s.store.GetTask(ctx, projectID, rawID); err != nil {
		return Resolution{}, err
	} else if ok {
		return Resolution{Task: task, Strategy: MatchID}, nil
	}

	res, ok, err := s.resolveBySource(ctx, projectID, rawID, MatchSourceID)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		return res, nil
	}

	canonical, ok := domain.CanonicalPrefix(rawID)
	if !ok {
		// Nothing recognizable to canonicalize. An ordinary miss, not an error.
		return Resolution{}, notFound
	}
	if canonical != rawID {
		if task, ok, err := s.store.GetTask(ctx, projectID, canonical); err != nil {
			return Resolution{}, err
		} else if ok {
			return Resolution{Task: task, Strategy: MatchCanonicalID}, nil
		}
		res, ok, err := s.resolveBySource(ctx, projectID, canonical, MatchCanonicalSource)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return res, nil
		}
	}

	// Legacy compound ids store "<uuid>-<suffix>" as the row id. A scoped
	// prefix search finds them from the bare uuid or an 8 character fragment.
	candidates, err := s.store.FindTasksByIDPrefix(ctx, projectID, canonical)
	if err != nil {
		return Resolution{}, err
	}
	if len(candidates) == 0 {
		return Resolution{}, notFound
	}
	return s.pick(projectID, rawID, candidates, MatchCanonicalID), nil
}

func (s *Service) resolveBySource(ctx context.Context, projectID, sourceID string, strategy MatchStrategy) (Resolution, bool, error) {
	candidates, err := s.store.FindFactorTasks(ctx, projectID, sourceID)
	if err != nil {
		return Resolution{}, false, err
	}
	if len(candidates) == 0 {
		return Resolution{}, false, nil
	}
	return s.pick(projectID, sourceID, candidates, strategy), true, nil
}

// pick applies the tie-break policy: candidates arrive newest first, the
// first row wins, and any surplus is reported as a data-quality warning
// rather than a failure.
func (s *Service) pick(projectID, rawID string, candidates []Task, strategy MatchStrategy) Resolution {
	res := Resolution{Task: candidates[0], Strategy: strategy}
	if len(candidates) > 1 {
		res.Warnings = append(res.Warnings, Warning{
			Code:    domain.WarnDuplicateMatch,
			Message: "multiple tasks matched one identifier in the same project",
		})
		s.logger.Warn("identifier matched multiple tasks",
			"project_id", projectID, "raw_id", rawID,
			"candidates", len(candidates), "picked", res.Task.ID)
	}
	return res
}
