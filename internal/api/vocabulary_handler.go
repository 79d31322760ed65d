package api

import (
	"net/http"

	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/service/vocabulary"
)

// VocabularyHandler serves vocabulary cards.
type VocabularyHandler struct {
	vocabulary vocabulary.Service
}

// NewVocabularyHandler creates a VocabularyHandler.
func NewVocabularyHandler(vocabularyService vocabulary.Service) *VocabularyHandler {
	if vocabularyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("vocabulary service cannot be nil")
	}
	return &VocabularyHandler{vocabulary: vocabularyService}
}

// Import handles POST /api/learners/{learnerID}/vocabulary.
func (h *VocabularyHandler) Import(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	var req ImportVocabularyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var (
		result vocabulary.ImportResult
		err    error
	)
	if req.Text != "" {
		result, err = h.vocabulary.ImportLessonList(r.Context(), learnerID, req.Text, req.Topic)
	} else {
		result, err = h.vocabulary.Import(r.Context(), learnerID, req.Entries, req.Topic)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import vocabulary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// List handles GET /api/learners/{learnerID}/vocabulary.
func (h *VocabularyHandler) List(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.vocabulary.List(r.Context(), learnerID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list vocabulary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// Due handles GET /api/learners/{learnerID}/vocabulary/due.
func (h *VocabularyHandler) Due(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.vocabulary.DueCards(r.Context(), learnerID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due vocabulary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// Stats handles GET /api/learners/{learnerID}/vocabulary/stats.
func (h *VocabularyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}

	stats, err := h.vocabulary.Stats(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get vocabulary stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Review handles POST /api/vocabulary/{cardID}/review.
func (h *VocabularyHandler) Review(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathUUID(w, r, "cardID")
	if !ok {
		return
	}
	var req ReviewVocabularyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var (
		card *domain.VocabularyCard
		err  error
	)
	if *req.Correct {
		card, err = h.vocabulary.RecordCorrect(r.Context(), cardID)
	} else {
		card, err = h.vocabulary.RecordIncorrect(r.Context(), cardID)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to review vocabulary card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// Delete handles DELETE /api/vocabulary/{cardID}.
func (h *VocabularyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.vocabulary.Delete(r.Context(), cardID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete vocabulary card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
