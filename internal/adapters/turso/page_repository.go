package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/util"
)

const pageColumns = `id, user_id, name, slug, thankyou_headline, thankyou_subline, vsl_url, pass_message, is_published, is_variant, variant_label, experiment_id, created_at`

// PageRepository is the libsql-backed funnel page store.
type PageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) Create(ctx context.Context, page *domain.FunnelPage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO funnel_pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		page.ID,
		page.UserID,
		page.Name,
		page.Slug,
		util.NullStringPtr(page.ThankyouHeadline),
		util.NullStringPtr(page.ThankyouSubline),
		util.NullStringPtr(page.VSLURL),
		util.NullStringPtr(page.PassMessage),
		util.BoolToInt64(page.IsPublished),
		util.BoolToInt64(page.IsVariant),
		util.NullStringPtr(page.VariantLabel),
		util.NullStringPtr(page.ExperimentID),
		page.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert funnel page: %w", err)
	}
	return nil
}

func (r *PageRepository) GetByID(ctx context.Context, id string) (*domain.FunnelPage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM funnel_pages WHERE id = ?`, id)
	return scanPage(row)
}

func (r *PageRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.FunnelPage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM funnel_pages WHERE id = ? AND user_id = ?`, id, userID)
	return scanPage(row)
}

func (r *PageRepository) ListByExperiment(ctx context.Context, experimentID string) ([]*domain.FunnelPage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+pageColumns+` FROM funnel_pages
		WHERE experiment_id = ? ORDER BY is_variant, created_at
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list pages by experiment: %w", err)
	}
	defer rows.Close()

	var pages []*domain.FunnelPage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

func (r *PageRepository) UpdateTestField(ctx context.Context, pageID string, field domain.TestField, value *string) error {
	var column string
	switch field {
	case domain.TestFieldHeadline:
		column = "thankyou_headline"
	case domain.TestFieldSubline:
		column = "thankyou_subline"
	case domain.TestFieldVSLURL:
		column = "vsl_url"
	case domain.TestFieldPassMessage:
		column = "pass_message"
	default:
		return fmt.Errorf("unknown test field %q: %w", field, domain.ErrValidation)
	}

	_, err := r.db.ExecContext(ctx, `UPDATE funnel_pages SET `+column+` = ? WHERE id = ?`, util.NullStringPtr(value), pageID)
	if err != nil {
		return fmt.Errorf("update page %s: %w", column, err)
	}
	return nil
}

func (r *PageRepository) SetPublished(ctx context.Context, pageID string, published bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE funnel_pages SET is_published = ? WHERE id = ?`, util.BoolToInt64(published), pageID)
	if err != nil {
		return fmt.Errorf("set page published: %w", err)
	}
	return nil
}

func (r *PageRepository) SetExperimentID(ctx context.Context, pageID string, experimentID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE funnel_pages SET experiment_id = ? WHERE id = ?`, util.NullStringPtr(experimentID), pageID)
	if err != nil {
		return fmt.Errorf("set page experiment link: %w", err)
	}
	return nil
}

func (r *PageRepository) UnpublishAndDetachVariants(ctx context.Context, experimentID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE funnel_pages SET is_published = 0, experiment_id = NULL
		WHERE experiment_id = ? AND is_variant = 1
	`, experimentID)
	if err != nil {
		return fmt.Errorf("unpublish variants: %w", err)
	}
	return nil
}

func (r *PageRepository) DeleteVariantsByExperiment(ctx context.Context, experimentID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM funnel_pages WHERE experiment_id = ? AND is_variant = 1
	`, experimentID)
	if err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	return nil
}

func scanPage(row rowScanner) (*domain.FunnelPage, error) {
	var (
		p            domain.FunnelPage
		headline     sql.NullString
		subline      sql.NullString
		vslURL       sql.NullString
		passMessage  sql.NullString
		isPublished  int64
		isVariant    int64
		variantLabel sql.NullString
		experimentID sql.NullString
		createdAt    string
	)

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Slug, &headline, &subline, &vslURL, &passMessage,
		&isPublished, &isVariant, &variantLabel, &experimentID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan funnel page: %w", err)
	}

	p.ThankyouHeadline = util.NullStringToPtr(headline)
	p.ThankyouSubline = util.NullStringToPtr(subline)
	p.VSLURL = util.NullStringToPtr(vslURL)
	p.PassMessage = util.NullStringToPtr(passMessage)
	p.IsPublished = isPublished == 1
	p.IsVariant = isVariant == 1
	p.VariantLabel = util.NullStringToPtr(variantLabel)
	p.ExperimentID = util.NullStringToPtr(experimentID)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}
