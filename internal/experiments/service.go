package experiments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/ports"
)

// PatchAction is a lifecycle action applied to an experiment.
type PatchAction string

const (
	ActionPause         PatchAction = "pause"
	ActionResume        PatchAction = "resume"
	ActionDeclareWinner PatchAction = "declare_winner"
)

// Service implements the experiment lifecycle: create, inspect, pause,
// resume, declare winner, delete, and copy suggestions. The scheduler
// drives winner declaration through the same CompleteExperiment path so
// manual and automatic completion behave identically.
type Service struct {
	experiments ports.ExperimentRepository
	pages       ports.PageRepository
	counter     ports.EventCounter
	suggester   ports.SuggestionProvider
	metrics     ports.MetricsExporter
	logger      ports.Logger
}

// NewService creates an experiment service backed by the supplied ports.
func NewService(
	experiments ports.ExperimentRepository,
	pages ports.PageRepository,
	counter ports.EventCounter,
	suggester ports.SuggestionProvider,
	metrics ports.MetricsExporter,
	logger ports.Logger,
) *Service {
	return &Service{
		experiments: experiments,
		pages:       pages,
		counter:     counter,
		suggester:   suggester,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateParams describes a new experiment over one funnel page.
type CreateParams struct {
	FunnelPageID string
	Name         string
	TestField    domain.TestField
	VariantValue *string
	VariantLabel *string
}

// CreateResult returns the ids of the new experiment and its variant page.
type CreateResult struct {
	ExperimentID string
	VariantID    string
}

// Create starts an experiment in the running state together with exactly
// one published variant page cloned from the control. If the variant
// insert fails the experiment row is deleted again, so an experiment with
// no variant can never persist.
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (*CreateResult, error) {
	control, err := s.pages.GetByIDForUser(ctx, params.FunnelPageID, userID)
	if err != nil {
		return nil, fmt.Errorf("load control page: %w", err)
	}
	if control == nil {
		return nil, fmt.Errorf("funnel page %s: %w", params.FunnelPageID, domain.ErrNotFound)
	}

	active, err := s.experiments.GetActiveByControlPage(ctx, control.ID)
	if err != nil {
		return nil, fmt.Errorf("check active experiment: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("experiment %s is still %s for page %s: %w", active.ID, active.Status, control.ID, domain.ErrConflict)
	}

	if !params.TestField.Valid() {
		return nil, fmt.Errorf("unknown test field %q: %w", params.TestField, domain.ErrValidation)
	}

	now := time.Now().UTC()
	experiment := &domain.Experiment{
		ID:            uuid.NewString(),
		UserID:        userID,
		ControlPageID: control.ID,
		Name:          params.Name,
		TestField:     params.TestField,
		Status:        domain.StatusRunning,
		MinSampleSize: domain.DefaultMinSampleSize,
		CreatedAt:     now,
	}
	if err := s.experiments.Create(ctx, experiment); err != nil {
		return nil, err
	}

	label := domain.DefaultVariantLabel
	if params.VariantLabel != nil && *params.VariantLabel != "" {
		label = *params.VariantLabel
	}
	slugToken := strings.Split(uuid.NewString(), "-")[0]
	variant := control.CloneForVariant(uuid.NewString(), experiment.ID, label, slugToken, params.TestField, params.VariantValue, now)

	if err := s.pages.Create(ctx, variant); err != nil {
		// Compensating action: never leave an experiment row with no variant.
		if delErr := s.experiments.Delete(ctx, experiment.ID); delErr != nil {
			s.logger.Error(fmt.Sprintf("Failed to roll back experiment %s after variant failure: %v", experiment.ID, delErr))
		}
		return nil, fmt.Errorf("create variant page: %w", err)
	}

	if err := s.pages.SetExperimentID(ctx, control.ID, &experiment.ID); err != nil {
		return nil, fmt.Errorf("link control page: %w", err)
	}

	s.metrics.RecordExperimentCreated(ctx)
	s.logger.Debug(fmt.Sprintf("Created experiment %s on page %s testing %s", experiment.ID, control.ID, params.TestField))

	return &CreateResult{ExperimentID: experiment.ID, VariantID: variant.ID}, nil
}

// Get returns the experiment with a per-page observation read model.
func (s *Service) Get(ctx context.Context, id, userID string) (*ExperimentDetail, error) {
	experiment, err := s.experiments.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	if experiment == nil {
		return nil, fmt.Errorf("experiment %s: %w", id, domain.ErrNotFound)
	}

	pages, err := s.resolvePages(ctx, experiment)
	if err != nil {
		return nil, err
	}

	detail := &ExperimentDetail{Experiment: experiment}
	for _, page := range pages {
		views, err := s.counter.Views(ctx, page.ID)
		if err != nil {
			return nil, fmt.Errorf("count views for page %s: %w", page.ID, err)
		}
		completions, err := s.counter.Completions(ctx, page.ID)
		if err != nil {
			return nil, fmt.Errorf("count completions for page %s: %w", page.ID, err)
		}

		detail.Variants = append(detail.Variants, VariantReport{
			PageID:           page.ID,
			IsVariant:        page.IsVariant,
			Label:            variantLabel(page),
			IsPublished:      page.IsPublished,
			Views:            views,
			Completions:      completions,
			CompletionRate:   domain.CompletionRate(views, completions),
			TestedFieldValue: experiment.TestField.Value(page),
		})
	}
	return detail, nil
}

// PatchParams applies a lifecycle action to an experiment.
type PatchParams struct {
	Action   PatchAction
	WinnerID string
}

// Patch pauses, resumes, or declares a winner. A declaration that loses
// the status race against the scheduler is a no-op and returns the
// already-completed experiment without error.
func (s *Service) Patch(ctx context.Context, id, userID string, params PatchParams) (*domain.Experiment, error) {
	experiment, err := s.experiments.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	if experiment == nil {
		return nil, fmt.Errorf("experiment %s: %w", id, domain.ErrNotFound)
	}

	switch params.Action {
	case ActionPause:
		ok, err := s.experiments.UpdateStatus(ctx, experiment.ID, domain.StatusRunning, domain.StatusPaused)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("cannot pause experiment in status %s: %w", experiment.Status, domain.ErrValidation)
		}
		experiment.Status = domain.StatusPaused
		return experiment, nil

	case ActionResume:
		ok, err := s.experiments.UpdateStatus(ctx, experiment.ID, domain.StatusPaused, domain.StatusRunning)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("cannot resume experiment in status %s: %w", experiment.Status, domain.ErrValidation)
		}
		experiment.Status = domain.StatusRunning
		return experiment, nil

	case ActionDeclareWinner:
		if params.WinnerID == "" {
			return nil, fmt.Errorf("winner id is required: %w", domain.ErrValidation)
		}
		winner, err := s.pages.GetByID(ctx, params.WinnerID)
		if err != nil {
			return nil, fmt.Errorf("load winner page: %w", err)
		}
		if winner == nil || !belongsToExperiment(experiment, winner) {
			return nil, fmt.Errorf("page %s does not belong to experiment %s: %w", params.WinnerID, experiment.ID, domain.ErrValidation)
		}

		if _, err := s.CompleteExperiment(ctx, experiment, winner, experiment.Significance); err != nil {
			return nil, err
		}
		updated, err := s.experiments.GetByID(ctx, experiment.ID)
		if err != nil {
			return nil, fmt.Errorf("reload experiment: %w", err)
		}
		if updated == nil {
			// Deleted out from under the declaration.
			return nil, fmt.Errorf("experiment %s: %w", id, domain.ErrNotFound)
		}
		return updated, nil

	default:
		return nil, fmt.Errorf("unknown action %q: %w", params.Action, domain.ErrValidation)
	}
}

// Delete removes the experiment and its variant pages outright, in any
// status, and clears the control's experiment link.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	experiment, err := s.experiments.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("load experiment: %w", err)
	}
	if experiment == nil {
		return fmt.Errorf("experiment %s: %w", id, domain.ErrNotFound)
	}

	if err := s.pages.DeleteVariantsByExperiment(ctx, experiment.ID); err != nil {
		return err
	}
	if err := s.pages.SetExperimentID(ctx, experiment.ControlPageID, nil); err != nil {
		return err
	}
	if err := s.experiments.Delete(ctx, experiment.ID); err != nil {
		return err
	}

	s.logger.Debug(fmt.Sprintf("Deleted experiment %s (was %s)", experiment.ID, experiment.Status))
	return nil
}

// List returns all experiments owned by the user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Experiment, error) {
	return s.experiments.ListByUser(ctx, userID)
}

// CompleteExperiment executes the winner-declaration mutation sequence
// shared by the manual and scheduled paths. The status compare-and-swap
// comes first: only the caller that wins the transition performs the
// field copy and cleanup, the loser returns false with no error.
func (s *Service) CompleteExperiment(ctx context.Context, experiment *domain.Experiment, winner *domain.FunnelPage, significance *float64) (bool, error) {
	won, err := s.experiments.MarkCompleted(ctx, experiment.ID, winner.ID, significance, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if !won {
		s.logger.Debug(fmt.Sprintf("Experiment %s already completed, skipping declaration", experiment.ID))
		return false, nil
	}

	if winner.ID != experiment.ControlPageID {
		value := experiment.TestField.Value(winner)
		if err := s.pages.UpdateTestField(ctx, experiment.ControlPageID, experiment.TestField, value); err != nil {
			return true, fmt.Errorf("copy winning field to control: %w", err)
		}
	}

	if err := s.pages.UnpublishAndDetachVariants(ctx, experiment.ID); err != nil {
		return true, err
	}
	if err := s.pages.SetExperimentID(ctx, experiment.ControlPageID, nil); err != nil {
		return true, err
	}

	s.logger.Debug(fmt.Sprintf("Experiment %s completed, winner %s", experiment.ID, winner.ID))
	return true, nil
}

// resolvePages returns the control page plus every page still linked to
// the experiment, control first, deduplicated.
func (s *Service) resolvePages(ctx context.Context, experiment *domain.Experiment) ([]*domain.FunnelPage, error) {
	linked, err := s.pages.ListByExperiment(ctx, experiment.ID)
	if err != nil {
		return nil, err
	}

	control, err := s.pages.GetByID(ctx, experiment.ControlPageID)
	if err != nil {
		return nil, fmt.Errorf("load control page: %w", err)
	}

	var pages []*domain.FunnelPage
	if control != nil {
		pages = append(pages, control)
	}
	for _, p := range linked {
		if control != nil && p.ID == control.ID {
			continue
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func belongsToExperiment(experiment *domain.Experiment, page *domain.FunnelPage) bool {
	if page.ID == experiment.ControlPageID {
		return true
	}
	return page.ExperimentID != nil && *page.ExperimentID == experiment.ID
}

func variantLabel(page *domain.FunnelPage) string {
	if page.VariantLabel != nil {
		return *page.VariantLabel
	}
	if !page.IsVariant {
		return "Control"
	}
	return ""
}
