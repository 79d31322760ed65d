package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/service"
)

// LearnerHandler serves learner provisioning.
type LearnerHandler struct {
	learners service.LearnerService
	logger   *slog.Logger
}

// NewLearnerHandler creates a LearnerHandler.
func NewLearnerHandler(learners service.LearnerService, logger *slog.Logger) *LearnerHandler {
	if learners == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("learners cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LearnerHandler{
		learners: learners,
		logger:   logger.With(slog.String("component", "learner_handler")),
	}
}

// Create handles POST /api/learners.
func (h *LearnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLearnerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := service.CreateLearnerInput{
		Level:     domain.Level(req.Level),
		DailyGoal: req.DailyGoal,
	}
	if req.ID != nil {
		in.ID = *req.ID
	}

	learner, err := h.learners.CreateLearner(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create learner")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("learner created",
		slog.String("user_id", learner.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, learner)
}

// Get handles GET /api/learners/{learnerID}.
func (h *LearnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}

	learner, err := h.learners.GetLearner(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get learner")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, learner)
}

