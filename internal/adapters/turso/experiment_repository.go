package turso

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/util"
)

const experimentColumns = `id, user_id, control_page_id, name, test_field, status, winner_id, min_sample_size, significance, created_at, completed_at`

// ExperimentRepository is the libsql-backed experiment store.
type ExperimentRepository struct {
	db *sql.DB
}

func NewExperimentRepository(db *sql.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// Create inserts the experiment. The partial unique index on active
// experiments per control page turns a concurrent duplicate into
// domain.ErrConflict instead of a second committed row.
func (r *ExperimentRepository) Create(ctx context.Context, experiment *domain.Experiment) error {
	var completedAt sql.NullString
	if experiment.CompletedAt != nil {
		completedAt = sql.NullString{String: experiment.CompletedAt.Format(time.RFC3339), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO experiments (`+experimentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		experiment.ID,
		experiment.UserID,
		experiment.ControlPageID,
		experiment.Name,
		string(experiment.TestField),
		string(experiment.Status),
		util.NullStringPtr(experiment.WinnerID),
		experiment.MinSampleSize,
		util.NullFloat64(experiment.Significance),
		experiment.CreatedAt.Format(time.RFC3339),
		completedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("active experiment already exists for page %s: %w", experiment.ControlPageID, domain.ErrConflict)
		}
		return fmt.Errorf("insert experiment: %w", err)
	}
	return nil
}

func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id)
	return scanExperiment(row)
}

func (r *ExperimentRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ? AND user_id = ?`, id, userID)
	return scanExperiment(row)
}

func (r *ExperimentRepository) GetActiveByControlPage(ctx context.Context, controlPageID string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+experimentColumns+` FROM experiments
		WHERE control_page_id = ? AND status IN ('running', 'paused')
	`, controlPageID)
	return scanExperiment(row)
}

func (r *ExperimentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+experimentColumns+` FROM experiments
		WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()
	return collectExperiments(rows)
}

func (r *ExperimentRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+experimentColumns+` FROM experiments
		WHERE status = ? ORDER BY created_at
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list experiments by status: %w", err)
	}
	defer rows.Close()
	return collectExperiments(rows)
}

// UpdateStatus transitions from->to only when the row is still in the
// expected state, reporting whether a row was changed.
func (r *ExperimentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE experiments SET status = ? WHERE id = ? AND status = ?
	`, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update experiment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update experiment status: %w", err)
	}
	return n == 1, nil
}

// MarkCompleted is the compare-and-swap both declaration paths go through:
// the UPDATE only matches while the experiment is still active, so a
// racing manual declaration and scheduler sweep cannot both win.
func (r *ExperimentRepository) MarkCompleted(ctx context.Context, id, winnerID string, significance *float64, completedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE experiments
		SET status = 'completed', winner_id = ?, significance = ?, completed_at = ?
		WHERE id = ? AND status IN ('running', 'paused')
	`, winnerID, util.NullFloat64(significance), completedAt.Format(time.RFC3339), id)
	if err != nil {
		return false, fmt.Errorf("mark experiment completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark experiment completed: %w", err)
	}
	return n == 1, nil
}

// ListCompletedWithAttachedVariants finds completed experiments whose
// cleanup did not finish: a variant page is still published or still
// carries the experiment back-reference.
func (r *ExperimentRepository) ListCompletedWithAttachedVariants(ctx context.Context) ([]*domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT e.id, e.user_id, e.control_page_id, e.name, e.test_field, e.status,
			e.winner_id, e.min_sample_size, e.significance, e.created_at, e.completed_at
		FROM experiments e
		JOIN funnel_pages p ON p.experiment_id = e.id
		WHERE e.status = 'completed'
	`)
	if err != nil {
		return nil, fmt.Errorf("list completed experiments with variants: %w", err)
	}
	defer rows.Close()
	return collectExperiments(rows)
}

func (r *ExperimentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (*domain.Experiment, error) {
	var (
		e            domain.Experiment
		testField    string
		status       string
		winnerID     sql.NullString
		significance sql.NullFloat64
		createdAt    string
		completedAt  sql.NullString
	)

	err := row.Scan(&e.ID, &e.UserID, &e.ControlPageID, &e.Name, &testField, &status,
		&winnerID, &e.MinSampleSize, &significance, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan experiment: %w", err)
	}

	e.TestField = domain.TestField(testField)
	e.Status = domain.Status(status)
	e.WinnerID = util.NullStringToPtr(winnerID)
	e.Significance = util.NullFloat64ToPtr(significance)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		e.CompletedAt = &t
	}
	return &e, nil
}

func collectExperiments(rows *sql.Rows) ([]*domain.Experiment, error) {
	var experiments []*domain.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiments: %w", err)
	}
	return experiments, nil
}
