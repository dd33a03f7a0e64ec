package ports

import (
	"context"
	"time"

	"github.com/pagelift/pagelift/internal/domain"
)

// ExperimentRepository persists experiments. Lookups return (nil, nil)
// when no row matches.
type ExperimentRepository interface {
	// Create inserts a new experiment. A second active experiment on the
	// same control page fails with domain.ErrConflict (backed by a partial
	// unique index, so concurrent creates cannot both commit).
	Create(ctx context.Context, experiment *domain.Experiment) error
	GetByID(ctx context.Context, id string) (*domain.Experiment, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Experiment, error)
	// GetActiveByControlPage returns the running or paused experiment for a
	// control page, if any.
	GetActiveByControlPage(ctx context.Context, controlPageID string) (*domain.Experiment, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Experiment, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Experiment, error)
	// UpdateStatus transitions from->to and reports whether the row was in
	// the expected state. No rows are touched on a lost race.
	UpdateStatus(ctx context.Context, id string, from, to domain.Status) (bool, error)
	// MarkCompleted is the optimistic status guard shared by the manual and
	// scheduled declaration paths: it completes the experiment only while
	// its status is still running or paused, and reports whether this
	// caller won the transition.
	MarkCompleted(ctx context.Context, id, winnerID string, significance *float64, completedAt time.Time) (bool, error)
	// ListCompletedWithAttachedVariants finds completed experiments whose
	// variant pages are still published or still linked, for crash
	// recovery of the non-atomic completion sequence.
	ListCompletedWithAttachedVariants(ctx context.Context) ([]*domain.Experiment, error)
	Delete(ctx context.Context, id string) error
}
