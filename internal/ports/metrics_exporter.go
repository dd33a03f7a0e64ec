package ports

import (
	"context"
	"time"
)

// MetricsExporter exports experiment lifecycle metrics to an external
// observability system.
type MetricsExporter interface {
	// RecordExperimentCreated counts a newly created experiment.
	RecordExperimentCreated(ctx context.Context)
	// RecordSchedulerRun records one scheduler sweep.
	RecordSchedulerRun(ctx context.Context, run SchedulerRunMetrics)
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// SchedulerRunMetrics describes a single scheduler sweep.
type SchedulerRunMetrics struct {
	Checked   int64
	Completed int64
	Duration  time.Duration
}
