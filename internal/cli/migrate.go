package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/infrastructure/config"
	"github.com/pagelift/pagelift/internal/infrastructure/database"
	"github.com/pagelift/pagelift/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates down to that specific version.

Examples:
  pagelift migrate      # Run all pending migrations
  pagelift migrate 1    # Migrate down to version 1
  pagelift migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if len(args) == 0 {
		if err := migrate.RunAll(ctx, db.DB); err != nil {
			return err
		}
		version, _, _ := migrate.GetCurrentVersion(ctx, db.DB)
		fmt.Printf("Database at version %d\n", version)
		return nil
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}

	if err := migrate.EnsureMigrationsTable(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, dirty, err := migrate.GetCurrentVersion(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d, manual intervention required", current)
	}

	allMigrations, err := migrate.LoadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if target < current {
		if err := migrate.MigrateDownTo(ctx, db.DB, allMigrations, current, target); err != nil {
			return err
		}
	} else {
		for _, m := range allMigrations {
			if m.Version <= current || m.Version > target {
				continue
			}
			if err := migrate.RunMigration(ctx, db.DB, m, true); err != nil {
				return err
			}
		}
	}

	version, _, _ := migrate.GetCurrentVersion(ctx, db.DB)
	fmt.Printf("Database at version %d\n", version)
	return nil
}
