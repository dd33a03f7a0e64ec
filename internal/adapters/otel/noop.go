package otel

import (
	"context"

	"github.com/pagelift/pagelift/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordExperimentCreated(ctx context.Context) {}

func (e *NoOpExporter) RecordSchedulerRun(ctx context.Context, run ports.SchedulerRunMetrics) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
