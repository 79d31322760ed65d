package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/phrazzld/linguist-api/internal/platform/database"
)

// runMigrations executes one goose command against the configured database.
// Auto-migration is ignored here; the command decides what runs.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	if err := database.Migrate(ctx, db, cfg.Database.Driver, command, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("migrations finished", slog.String("command", command))
	return nil
}
