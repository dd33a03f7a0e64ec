package scheduler

import (
	"context"
	"fmt"
)

// Reconcile finishes the cleanup steps for completed experiments whose
// variant pages are still published or still attached. The completion
// sequence is not atomic; a crash between the status CAS and the variant
// cleanup leaves exactly this state behind.
func (s *Scheduler) Reconcile(ctx context.Context) (int, error) {
	stale, err := s.experiments.ListCompletedWithAttachedVariants(ctx)
	if err != nil {
		return 0, fmt.Errorf("find incomplete cleanups: %w", err)
	}

	fixed := 0
	for _, experiment := range stale {
		if err := s.pages.UnpublishAndDetachVariants(ctx, experiment.ID); err != nil {
			s.logger.Error(fmt.Sprintf("Reconciling experiment %s failed: %v", experiment.ID, err))
			continue
		}
		if err := s.pages.SetExperimentID(ctx, experiment.ControlPageID, nil); err != nil {
			s.logger.Error(fmt.Sprintf("Reconciling experiment %s failed: %v", experiment.ID, err))
			continue
		}
		fixed++
	}
	return fixed, nil
}
