package ports

import (
	"context"

	"github.com/pagelift/pagelift/internal/domain"
)

// PageRepository persists funnel pages. Lookups return (nil, nil) when no
// row matches.
type PageRepository interface {
	Create(ctx context.Context, page *domain.FunnelPage) error
	GetByID(ctx context.Context, id string) (*domain.FunnelPage, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.FunnelPage, error)
	// ListByExperiment returns every page still linked to the experiment,
	// control included while the link is set.
	ListByExperiment(ctx context.Context, experimentID string) ([]*domain.FunnelPage, error)
	// UpdateTestField writes the tested attribute only; no other content
	// column is touched.
	UpdateTestField(ctx context.Context, pageID string, field domain.TestField, value *string) error
	SetPublished(ctx context.Context, pageID string, published bool) error
	SetExperimentID(ctx context.Context, pageID string, experimentID *string) error
	// UnpublishAndDetachVariants unpublishes every variant of the
	// experiment and clears its back-reference in one statement.
	UnpublishAndDetachVariants(ctx context.Context, experimentID string) error
	DeleteVariantsByExperiment(ctx context.Context, experimentID string) error
}
