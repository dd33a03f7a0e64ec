package domain

import "time"

// Status is the lifecycle state of an experiment.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Active reports whether the experiment still owns its control page.
// At most one active experiment may exist per control page.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusPaused
}

// DefaultMinSampleSize is the per-page view floor below which no
// significance test is attempted.
const DefaultMinSampleSize = 100

// SignificanceThreshold is the two-tailed p-value below which the
// scheduler declares a winner.
const SignificanceThreshold = 0.05

// Experiment is a single A/B test over one funnel page. It is created
// running together with exactly one variant page and terminates exactly
// once into completed, either by a manual declaration or by the scheduler.
type Experiment struct {
	ID            string
	UserID        string
	ControlPageID string
	Name          string
	TestField     TestField
	Status        Status
	WinnerID      *string
	MinSampleSize int64
	Significance  *float64
	CreatedAt     time.Time
	CompletedAt   *time.Time
}
