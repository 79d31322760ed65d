package api

import (
	"net/http"

	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/service/ledger"
)

// SkillHandler serves the skill ledger.
type SkillHandler struct {
	ledger ledger.Service
}

// NewSkillHandler creates a SkillHandler.
func NewSkillHandler(ledgerService ledger.Service) *SkillHandler {
	if ledgerService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("ledger service cannot be nil")
	}
	return &SkillHandler{ledger: ledgerService}
}

// RecordOutcome handles POST /api/learners/{learnerID}/outcomes. A single
// outcome responds with its record, a list with the records of every rule
// it touched.
func (h *SkillHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	var req RecordOutcomeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if len(req.Outcomes) > 0 {
		records, err := h.ledger.RecordOutcomes(r.Context(), learnerID, req.Outcomes)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to record outcomes")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, records)
		return
	}

	record, err := h.ledger.RecordOutcome(r.Context(), learnerID, req.RuleName, *req.Success)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record outcome")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// GradeBatch handles POST /api/skills/{skillID}/grade.
func (h *SkillHandler) GradeBatch(w http.ResponseWriter, r *http.Request) {
	skillID, ok := pathUUID(w, r, "skillID")
	if !ok {
		return
	}
	var req GradeBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	grade, err := h.ledger.GradeBatch(r.Context(), skillID, *req.CorrectCount, req.TotalCount)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to grade batch")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, grade)
}

// List handles GET /api/learners/{learnerID}/skills.
func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.ledger.ListSkills(r.Context(), learnerID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list skills")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// ListWeak handles GET /api/learners/{learnerID}/skills/weak.
func (h *SkillHandler) ListWeak(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	threshold, err := queryInt(r, "threshold", domain.DefaultWeaknessThreshold)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.ledger.ListWeak(r.Context(), learnerID, threshold, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list weak skills")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// ListDue handles GET /api/learners/{learnerID}/skills/due.
func (h *SkillHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.ledger.ListDue(r.Context(), learnerID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due skills")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, records)
}
