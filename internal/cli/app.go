package cli

import (
	"context"
	"fmt"

	openaiadapter "github.com/pagelift/pagelift/internal/adapters/openai"
	otelexporter "github.com/pagelift/pagelift/internal/adapters/otel"
	"github.com/pagelift/pagelift/internal/adapters/turso"
	"github.com/pagelift/pagelift/internal/adapters/zaplog"
	"github.com/pagelift/pagelift/internal/experiments"
	"github.com/pagelift/pagelift/internal/infrastructure/config"
	"github.com/pagelift/pagelift/internal/infrastructure/database"
	"github.com/pagelift/pagelift/internal/ports"
	"github.com/pagelift/pagelift/internal/scheduler"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config         *config.App
	DB             *database.Client
	ExperimentRepo ports.ExperimentRepository
	PageRepo       ports.PageRepository
	Counter        ports.EventCounter
	Metrics        ports.MetricsExporter
	Logger         *zaplog.Logger
	Service        *experiments.Service
	Scheduler      *scheduler.Scheduler
}

// NewAppContext creates an AppContext with all dependencies initialized.
func NewAppContext(ctx context.Context) (*AppContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger, err := zaplog.New()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var metrics ports.MetricsExporter
	if exporter, err := otelexporter.NewExporter(ctx, otelexporter.LoadConfig()); err == nil {
		metrics = exporter
	} else {
		metrics = otelexporter.NewNoOpExporter()
	}

	var suggester ports.SuggestionProvider
	if cfg.Suggestions.OpenAIAPIKey != "" {
		suggester = openaiadapter.NewSuggester(cfg.Suggestions.OpenAIAPIKey, cfg.Suggestions.OpenAIModel)
	}

	experimentRepo := turso.NewExperimentRepository(db.DB)
	pageRepo := turso.NewPageRepository(db.DB)
	counter := turso.NewEventCounter(db.DB)

	service := experiments.NewService(experimentRepo, pageRepo, counter, suggester, metrics, logger)
	sched := scheduler.New(experimentRepo, pageRepo, counter, service, metrics, logger, scheduler.Config{
		Interval:    cfg.Scheduler.Interval,
		MaxParallel: cfg.Scheduler.MaxParallel,
		MaxRetries:  cfg.Scheduler.MaxRetries,
	})

	return &AppContext{
		Config:         cfg,
		DB:             db,
		ExperimentRepo: experimentRepo,
		PageRepo:       pageRepo,
		Counter:        counter,
		Metrics:        metrics,
		Logger:         logger,
		Service:        service,
		Scheduler:      sched,
	}, nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close(ctx context.Context) error {
	if a.Metrics != nil {
		_ = a.Metrics.Close(ctx)
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
