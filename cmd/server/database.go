package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/phrazzld/linguist-api/internal/platform/database"
	"github.com/phrazzld/linguist-api/internal/platform/postgres"
	"github.com/phrazzld/linguist-api/internal/platform/sqlite"
	"github.com/phrazzld/linguist-api/internal/store"
)

// setupAppDatabase opens the configured database and, when auto_migrate is
// set, brings its schema up to date.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.Database.Driver, database.MigrateUp, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return db, nil
}

// newStores returns the store implementations for the configured driver.
func newStores(driver string, db *sql.DB, logger *slog.Logger) (store.Stores, error) {
	switch driver {
	case config.DriverPostgres:
		return postgres.NewStores(db, logger), nil
	case config.DriverSQLite:
		return sqlite.NewStores(db, logger), nil
	default:
		return store.Stores{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
