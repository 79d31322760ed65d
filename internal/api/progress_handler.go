package api

import (
	"net/http"

	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/service/progress"
)

// ProgressHandler serves promotion, the dashboard and the timeline.
type ProgressHandler struct {
	progress progress.Service
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(progressService progress.Service) *ProgressHandler {
	if progressService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progress service cannot be nil")
	}
	return &ProgressHandler{progress: progressService}
}

// Evaluate handles POST /api/learners/{learnerID}/promotion.
func (h *ProgressHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}

	result, err := h.progress.Evaluate(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to evaluate promotion")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Dashboard handles GET /api/learners/{learnerID}/dashboard.
func (h *ProgressHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}

	dashboard, err := h.progress.Dashboard(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build dashboard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, dashboard)
}

// Timeline handles GET /api/learners/{learnerID}/timeline.
func (h *ProgressHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	days, err := queryInt(r, "days", progress.DefaultTimelineDays)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sessions, err := h.progress.Timeline(r.Context(), learnerID, days, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get timeline")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessions)
}
