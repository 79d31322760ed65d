package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/linguist-api/internal/api"
	apiMiddleware "github.com/phrazzld/linguist-api/internal/api/middleware"
	"github.com/phrazzld/linguist-api/internal/platform/metrics"
)

const healthCheckTimeout = 2 * time.Second

// setupRouter creates the router with middleware, the API routes, the health
// check and, when enabled, the metrics endpoint.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.RequestLogger)

	api.RegisterRoutes(r, api.Handlers{
		Learners:   api.NewLearnerHandler(app.learnerService, app.logger),
		Skills:     api.NewSkillHandler(app.ledgerService),
		Vocabulary: api.NewVocabularyHandler(app.vocabularyService),
		Progress:   api.NewProgressHandler(app.progressService),
		Practice:   api.NewPracticeHandler(app.practiceService),
	})

	r.Get("/health", app.handleHealth)

	if app.config.Metrics.Enabled {
		path := app.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler(app.registry))
	}

	return r
}

// handleHealth reports 200 when the database answers a ping.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, body := http.StatusOK, "OK"
	if err := app.db.PingContext(ctx); err != nil {
		app.logger.Error("health check failed", slog.String("error", err.Error()))
		status, body = http.StatusServiceUnavailable, "database unavailable"
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		app.logger.Error("failed to write health check response", slog.String("error", err.Error()))
	}
}
