package experiments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/ports"
)

// fakeExperimentRepo is an in-memory ports.ExperimentRepository with the
// same compare-and-swap semantics as the SQL adapter.
type fakeExperimentRepo struct {
	mu          sync.Mutex
	experiments map[string]*domain.Experiment
	stale       []*domain.Experiment
	createErr   error
	// afterComplete runs after a successful MarkCompleted, for tests that
	// interleave another writer with the completion sequence.
	afterComplete func()
}

func newFakeExperimentRepo() *fakeExperimentRepo {
	return &fakeExperimentRepo{experiments: make(map[string]*domain.Experiment)}
}

func (r *fakeExperimentRepo) Create(_ context.Context, experiment *domain.Experiment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, e := range r.experiments {
		if e.ControlPageID == experiment.ControlPageID && e.Status.Active() {
			return fmt.Errorf("active experiment already exists for page %s: %w", experiment.ControlPageID, domain.ErrConflict)
		}
	}
	clone := *experiment
	r.experiments[experiment.ID] = &clone
	return nil
}

func (r *fakeExperimentRepo) GetByID(_ context.Context, id string) (*domain.Experiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.experiments[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (r *fakeExperimentRepo) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Experiment, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil || e == nil || e.UserID != userID {
		return nil, err
	}
	return e, nil
}

func (r *fakeExperimentRepo) GetActiveByControlPage(_ context.Context, controlPageID string) (*domain.Experiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.experiments {
		if e.ControlPageID == controlPageID && e.Status.Active() {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeExperimentRepo) ListByUser(_ context.Context, userID string) ([]*domain.Experiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Experiment
	for _, e := range r.experiments {
		if e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeExperimentRepo) ListByStatus(_ context.Context, status domain.Status) ([]*domain.Experiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Experiment
	for _, e := range r.experiments {
		if e.Status == status {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeExperimentRepo) UpdateStatus(_ context.Context, id string, from, to domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.experiments[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (r *fakeExperimentRepo) MarkCompleted(_ context.Context, id, winnerID string, significance *float64, completedAt time.Time) (bool, error) {
	r.mu.Lock()
	e, ok := r.experiments[id]
	if !ok || !e.Status.Active() {
		r.mu.Unlock()
		return false, nil
	}
	e.Status = domain.StatusCompleted
	e.WinnerID = &winnerID
	e.Significance = significance
	e.CompletedAt = &completedAt
	hook := r.afterComplete
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true, nil
}

func (r *fakeExperimentRepo) ListCompletedWithAttachedVariants(_ context.Context) ([]*domain.Experiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale, nil
}

func (r *fakeExperimentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.experiments, id)
	return nil
}

// fakePageRepo is an in-memory ports.PageRepository.
type fakePageRepo struct {
	mu        sync.Mutex
	pages     map[string]*domain.FunnelPage
	createErr error
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{pages: make(map[string]*domain.FunnelPage)}
}

func (r *fakePageRepo) put(p *domain.FunnelPage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.pages[p.ID] = &clone
}

func (r *fakePageRepo) Create(_ context.Context, page *domain.FunnelPage) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(page)
	return nil
}

func (r *fakePageRepo) GetByID(_ context.Context, id string) (*domain.FunnelPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *fakePageRepo) GetByIDForUser(ctx context.Context, id, userID string) (*domain.FunnelPage, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil || p.UserID != userID {
		return nil, err
	}
	return p, nil
}

func (r *fakePageRepo) ListByExperiment(_ context.Context, experimentID string) ([]*domain.FunnelPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FunnelPage
	for _, p := range r.pages {
		if p.ExperimentID != nil && *p.ExperimentID == experimentID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakePageRepo) UpdateTestField(_ context.Context, pageID string, field domain.TestField, value *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[pageID]
	if !ok {
		return fmt.Errorf("page %s not found", pageID)
	}
	field.Apply(p, value)
	return nil
}

func (r *fakePageRepo) SetPublished(_ context.Context, pageID string, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[pageID]; ok {
		p.IsPublished = published
	}
	return nil
}

func (r *fakePageRepo) SetExperimentID(_ context.Context, pageID string, experimentID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[pageID]; ok {
		p.ExperimentID = experimentID
	}
	return nil
}

func (r *fakePageRepo) UnpublishAndDetachVariants(_ context.Context, experimentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pages {
		if p.IsVariant && p.ExperimentID != nil && *p.ExperimentID == experimentID {
			p.IsPublished = false
			p.ExperimentID = nil
		}
	}
	return nil
}

func (r *fakePageRepo) DeleteVariantsByExperiment(_ context.Context, experimentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pages {
		if p.IsVariant && p.ExperimentID != nil && *p.ExperimentID == experimentID {
			delete(r.pages, id)
		}
	}
	return nil
}

// fakeCounter serves fixed per-page counts.
type fakeCounter struct {
	views       map[string]int64
	completions map[string]int64
	err         error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{views: make(map[string]int64), completions: make(map[string]int64)}
}

func (c *fakeCounter) Views(_ context.Context, pageID string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.views[pageID], nil
}

func (c *fakeCounter) Completions(_ context.Context, pageID string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.completions[pageID], nil
}

// fakeSuggester returns canned suggestions.
type fakeSuggester struct {
	suggestions []domain.Suggestion
	err         error
	lastReq     ports.SuggestionRequest
	calls       int
}

func (s *fakeSuggester) Suggest(_ context.Context, req ports.SuggestionRequest) ([]domain.Suggestion, error) {
	s.calls++
	s.lastReq = req
	return s.suggestions, s.err
}

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Error(string) {}

// nopMetrics discards metrics.
type nopMetrics struct{}

func (nopMetrics) RecordExperimentCreated(context.Context)                       {}
func (nopMetrics) RecordSchedulerRun(context.Context, ports.SchedulerRunMetrics) {}
func (nopMetrics) Close(context.Context) error                                   { return nil }
