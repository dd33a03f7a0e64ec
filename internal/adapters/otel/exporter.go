package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pagelift/pagelift/internal/ports"
)

const (
	serviceName    = "pagelift"
	serviceVersion = "1.0.0"
)

// Exporter exports experiment lifecycle metrics to an OTEL Collector.
type Exporter struct {
	provider         *sdkmetric.MeterProvider
	meter            metric.Meter
	createdTotal     metric.Int64Counter
	checkedTotal     metric.Int64Counter
	completedTotal   metric.Int64Counter
	sweepDurationSec metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	createdTotal, err := meter.Int64Counter(
		"pagelift_experiments_created_total",
		metric.WithDescription("Total experiments created"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating created counter: %w", err)
	}

	checkedTotal, err := meter.Int64Counter(
		"pagelift_scheduler_checked_total",
		metric.WithDescription("Running experiments checked by the scheduler"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating checked counter: %w", err)
	}

	completedTotal, err := meter.Int64Counter(
		"pagelift_scheduler_completed_total",
		metric.WithDescription("Experiments auto-completed by the scheduler"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}

	sweepDurationSec, err := meter.Float64Histogram(
		"pagelift_scheduler_sweep_duration_seconds",
		metric.WithDescription("Duration of a scheduler evaluation sweep"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep duration histogram: %w", err)
	}

	return &Exporter{
		provider:         provider,
		meter:            meter,
		createdTotal:     createdTotal,
		checkedTotal:     checkedTotal,
		completedTotal:   completedTotal,
		sweepDurationSec: sweepDurationSec,
	}, nil
}

func (e *Exporter) RecordExperimentCreated(ctx context.Context) {
	e.createdTotal.Add(ctx, 1)
}

func (e *Exporter) RecordSchedulerRun(ctx context.Context, run ports.SchedulerRunMetrics) {
	e.checkedTotal.Add(ctx, run.Checked)
	e.completedTotal.Add(ctx, run.Completed)
	e.sweepDurationSec.Record(ctx, run.Duration.Seconds())
}

// Close flushes pending metrics and shuts the provider down.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
