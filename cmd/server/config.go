package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/config"
)

// loadAppConfig loads the application configuration from the environment and
// the optional config and dotenv files.
func loadAppConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logAppConfig records the non-secret parts of cfg.
func logAppConfig(cfg *config.Config, logger *slog.Logger) {
	logger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("metrics_enabled", cfg.Metrics.Enabled))

	// The URL carries credentials; only its presence is logged.
	logger.Debug("database configuration",
		slog.Bool("url_present", cfg.Database.URL != ""),
		slog.Bool("auto_migrate", cfg.Database.AutoMigrate))
}
