package turso_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/pagelift/pagelift/internal/adapters/turso"
	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/migrate"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	ctx := context.Background()
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

// seedPage inserts a published control page. The id doubles as the slug so
// tests sharing the in-memory database never collide.
func seedPage(t *testing.T, db *sql.DB, id, userID string) *domain.FunnelPage {
	t.Helper()

	page := &domain.FunnelPage{
		ID:               id,
		UserID:           userID,
		Name:             "Page " + id,
		Slug:             id,
		ThankyouHeadline: strPtr("You made it"),
		IsPublished:      true,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
	if err := turso.NewPageRepository(db).Create(context.Background(), page); err != nil {
		t.Fatalf("Failed to seed page %s: %v", id, err)
	}
	return page
}

func seedExperiment(t *testing.T, db *sql.DB, id, userID, controlPageID string) *domain.Experiment {
	t.Helper()

	experiment := &domain.Experiment{
		ID:            id,
		UserID:        userID,
		ControlPageID: controlPageID,
		Name:          "Experiment " + id,
		TestField:     domain.TestFieldHeadline,
		Status:        domain.StatusRunning,
		MinSampleSize: domain.DefaultMinSampleSize,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := turso.NewExperimentRepository(db).Create(context.Background(), experiment); err != nil {
		t.Fatalf("Failed to seed experiment %s: %v", id, err)
	}
	return experiment
}
