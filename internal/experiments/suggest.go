package experiments

import (
	"context"
	"fmt"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/ports"
)

// SuggestParams asks for alternative copy for one tested field of a page.
type SuggestParams struct {
	FunnelPageID string
	TestField    domain.TestField
	Context      string
}

// SuggestVariants returns copy ideas for the tested field. VSL pages get
// one fixed suggestion, removing the video, without an LLM round-trip;
// every other field delegates to the provider for exactly three
// alternatives. This never touches the statistical path.
func (s *Service) SuggestVariants(ctx context.Context, userID string, params SuggestParams) ([]domain.Suggestion, error) {
	page, err := s.pages.GetByIDForUser(ctx, params.FunnelPageID, userID)
	if err != nil {
		return nil, fmt.Errorf("load funnel page: %w", err)
	}
	if page == nil {
		return nil, fmt.Errorf("funnel page %s: %w", params.FunnelPageID, domain.ErrNotFound)
	}

	if !params.TestField.Valid() {
		return nil, fmt.Errorf("unknown test field %q: %w", params.TestField, domain.ErrValidation)
	}

	if params.TestField == domain.TestFieldVSLURL {
		return []domain.Suggestion{
			{
				Label:     domain.DefaultVariantLabel,
				Value:     "",
				Rationale: "Remove the video to test whether the page converts without it.",
			},
		}, nil
	}

	if s.suggester == nil {
		return nil, fmt.Errorf("no suggestion provider configured")
	}

	suggestions, err := s.suggester.Suggest(ctx, ports.SuggestionRequest{
		Field:        params.TestField,
		CurrentValue: params.TestField.Value(page),
		PageName:     page.Name,
		Context:      params.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	return suggestions, nil
}
