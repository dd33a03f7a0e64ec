package ports

import (
	"context"

	"github.com/pagelift/pagelift/internal/domain"
)

// SuggestionRequest carries the context handed to the copy-ideation model.
type SuggestionRequest struct {
	Field        domain.TestField
	CurrentValue *string
	PageName     string
	// Context is optional free-form product context supplied by the caller.
	Context string
}

// SuggestionProvider generates alternative copy for a tested field. It is
// an optional helper and never participates in the statistical path.
type SuggestionProvider interface {
	// Suggest returns exactly three alternatives, each with a one-sentence
	// rationale.
	Suggest(ctx context.Context, req SuggestionRequest) ([]domain.Suggestion, error)
}
