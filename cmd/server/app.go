package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/phrazzld/linguist-api/internal/domain/srs"
	"github.com/phrazzld/linguist-api/internal/platform/metrics"
	"github.com/phrazzld/linguist-api/internal/service"
	"github.com/phrazzld/linguist-api/internal/service/ledger"
	"github.com/phrazzld/linguist-api/internal/service/practice"
	"github.com/phrazzld/linguist-api/internal/service/progress"
	"github.com/phrazzld/linguist-api/internal/service/vocabulary"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// application holds the shared dependencies of every command so they are
// built in one place and released together on shutdown.
type application struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB
	clock  service.Clock

	stores store.Stores

	// Metrics
	registry *prometheus.Registry
	recorder *metrics.Recorder

	// Services
	srsService        srs.Service
	learnerService    service.LearnerService
	ledgerService     ledger.Service
	vocabularyService vocabulary.Service
	progressService   progress.Service
	practiceService   practice.Service
}

// newApplication wires stores, metrics and services around an open database.
// The caller keeps ownership of db until cleanup runs.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, clock service.Clock) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		clock:    clock.OrSystem(),
		registry: metrics.NewRegistry(),
	}

	var err error
	app.stores, err = newStores(cfg.Database.Driver, db, logger)
	if err != nil {
		return nil, err
	}

	app.recorder = metrics.NewRecorder(app.registry)
	if err := app.registry.Register(metrics.NewDueCollector(app.stores.Skills, app.stores.Vocabulary, logger)); err != nil {
		return nil, fmt.Errorf("failed to register due review collector: %w", err)
	}

	app.srsService = srs.NewDefaultService()

	app.learnerService = service.NewLearnerService(db, app.stores.Learners, app.clock, logger)
	app.ledgerService = ledger.NewService(
		db,
		app.stores.Learners,
		app.stores.Skills,
		app.srsService,
		app.recorder,
		app.clock,
		logger,
	)
	app.vocabularyService = vocabulary.NewService(
		db,
		app.stores.Learners,
		app.stores.Vocabulary,
		app.srsService,
		app.recorder,
		app.clock,
		logger,
	)
	app.progressService = progress.NewService(db, app.stores, app.recorder, app.clock, logger)
	app.practiceService = practice.NewService(
		db,
		app.stores,
		app.ledgerService,
		app.vocabularyService,
		app.clock,
		logger,
	)

	logger.Info("application initialized",
		slog.String("database_driver", cfg.Database.Driver))
	return app, nil
}

// Run serves the HTTP API until ctx is canceled or a shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the database connection.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
