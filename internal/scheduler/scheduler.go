package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/experiments"
	"github.com/pagelift/pagelift/internal/infrastructure/database"
	"github.com/pagelift/pagelift/internal/ports"
)

// Config tunes the periodic evaluation sweep.
type Config struct {
	// Interval between sweeps. The engine is fixed-horizon: evaluation
	// happens on this cadence, never continuously.
	Interval time.Duration
	// MaxParallel bounds concurrent experiment evaluations within a sweep.
	MaxParallel int
	// MaxRetries bounds retries of transient counter reads per experiment.
	MaxRetries int
}

// RunResult aggregates one sweep: how many running experiments were
// checked and how many auto-completed.
type RunResult struct {
	Checked   int64
	Completed int64
}

// Scheduler periodically evaluates every running experiment and declares
// a winner through the same mutation path as a manual declaration.
type Scheduler struct {
	experiments ports.ExperimentRepository
	pages       ports.PageRepository
	counter     ports.EventCounter
	service     *experiments.Service
	metrics     ports.MetricsExporter
	logger      ports.Logger
	cfg         Config
}

func New(
	experimentRepo ports.ExperimentRepository,
	pageRepo ports.PageRepository,
	counter ports.EventCounter,
	service *experiments.Service,
	metrics ports.MetricsExporter,
	logger ports.Logger,
	cfg Config,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	return &Scheduler{
		experiments: experimentRepo,
		pages:       pageRepo,
		counter:     counter,
		service:     service,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// Run sweeps immediately, then on every tick until the context ends. Each
// sweep starts with a reconciliation pass so a crash mid-completion is
// repaired before new declarations happen.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if fixed, err := s.Reconcile(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("Reconciliation failed: %v", err))
	} else if fixed > 0 {
		s.logger.Debug(fmt.Sprintf("Reconciled %d incomplete experiment cleanups", fixed))
	}

	result, err := s.EvaluateAll(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Evaluation sweep failed: %v", err))
		return
	}
	s.logger.Debug(fmt.Sprintf("Sweep done: checked=%d completed=%d", result.Checked, result.Completed))
}

// EvaluateAll evaluates every running experiment. Experiments are
// independent: each has its own error boundary, and a failure is logged
// with the experiment id without aborting the batch.
func (s *Scheduler) EvaluateAll(ctx context.Context) (RunResult, error) {
	start := time.Now()

	running, err := s.experiments.ListByStatus(ctx, domain.StatusRunning)
	if err != nil {
		return RunResult{}, fmt.Errorf("list running experiments: %w", err)
	}

	var checked, completed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)
	for _, experiment := range running {
		experiment := experiment
		g.Go(func() error {
			atomic.AddInt64(&checked, 1)
			won, err := s.evaluateOne(gctx, experiment)
			if err != nil {
				s.logger.Error(fmt.Sprintf("Evaluating experiment %s failed: %v", experiment.ID, err))
				return nil
			}
			if won {
				atomic.AddInt64(&completed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := RunResult{Checked: atomic.LoadInt64(&checked), Completed: atomic.LoadInt64(&completed)}
	s.metrics.RecordSchedulerRun(ctx, ports.SchedulerRunMetrics{
		Checked:   result.Checked,
		Completed: result.Completed,
		Duration:  time.Since(start),
	})
	return result, nil
}

// observation pairs a page with its cumulative counts.
type observation struct {
	page        *domain.FunnelPage
	views       int64
	completions int64
}

func (o observation) rate() float64 {
	if o.views == 0 {
		return 0
	}
	return float64(o.completions) / float64(o.views)
}

// evaluateOne gathers observations for one experiment and declares a
// winner when the top two published pages separate below the p=0.05
// threshold. It reports whether this sweep completed the experiment.
func (s *Scheduler) evaluateOne(ctx context.Context, experiment *domain.Experiment) (bool, error) {
	pages, err := s.publishedPages(ctx, experiment)
	if err != nil {
		return false, err
	}

	// A manual unpublish breaks comparability; wait until both sides of
	// the split are live again.
	if len(pages) < 2 {
		return false, nil
	}

	obs := make([]observation, 0, len(pages))
	for _, page := range pages {
		page := page
		views, err := database.WithRetry(ctx, s.cfg.MaxRetries, func() (int64, error) {
			return s.counter.Views(ctx, page.ID)
		})
		if err != nil {
			return false, fmt.Errorf("count views for page %s: %w", page.ID, err)
		}
		completions, err := database.WithRetry(ctx, s.cfg.MaxRetries, func() (int64, error) {
			return s.counter.Completions(ctx, page.ID)
		})
		if err != nil {
			return false, fmt.Errorf("count completions for page %s: %w", page.ID, err)
		}

		if views < experiment.MinSampleSize {
			// Not enough data yet.
			return false, nil
		}
		obs = append(obs, observation{page: page, views: views, completions: completions})
	}

	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].rate() > obs[j].rate()
	})

	top, second := obs[0], obs[1]
	test := domain.TwoProportionZTest(top.views, top.completions, second.views, second.completions)
	if test.PValue >= domain.SignificanceThreshold {
		return false, nil
	}

	significance := test.PValue
	won, err := s.service.CompleteExperiment(ctx, experiment, top.page, &significance)
	if err != nil {
		return false, err
	}
	return won, nil
}

// publishedPages resolves the currently published pages of an experiment:
// the control plus every variant still referencing it.
func (s *Scheduler) publishedPages(ctx context.Context, experiment *domain.Experiment) ([]*domain.FunnelPage, error) {
	linked, err := s.pages.ListByExperiment(ctx, experiment.ID)
	if err != nil {
		return nil, err
	}

	control, err := s.pages.GetByID(ctx, experiment.ControlPageID)
	if err != nil {
		return nil, fmt.Errorf("load control page: %w", err)
	}

	var pages []*domain.FunnelPage
	if control != nil && control.IsPublished {
		pages = append(pages, control)
	}
	for _, p := range linked {
		if control != nil && p.ID == control.ID {
			continue
		}
		if p.IsPublished {
			pages = append(pages, p)
		}
	}
	return pages, nil
}
