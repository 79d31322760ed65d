package api

import (
	"net/http"

	"github.com/phrazzld/linguist-api/internal/api/shared"
	"github.com/phrazzld/linguist-api/internal/service/practice"
)

// PracticeHandler serves lessons and challenges.
type PracticeHandler struct {
	practice practice.Service
}

// NewPracticeHandler creates a PracticeHandler.
func NewPracticeHandler(practiceService practice.Service) *PracticeHandler {
	if practiceService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("practice service cannot be nil")
	}
	return &PracticeHandler{practice: practiceService}
}

// CreateLesson handles POST /api/learners/{learnerID}/lessons.
func (h *PracticeHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	var req practice.CreateLessonInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.practice.CreateLesson(r.Context(), learnerID, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create lesson")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// ListLessons handles GET /api/learners/{learnerID}/lessons.
func (h *PracticeHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lessons, err := h.practice.ListLessons(r.Context(), learnerID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list lessons")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lessons)
}

// GetLesson handles GET /api/lessons/{lessonID}.
func (h *PracticeHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathUUID(w, r, "lessonID")
	if !ok {
		return
	}

	lesson, err := h.practice.GetLesson(r.Context(), lessonID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get lesson")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lesson)
}

// LessonSessions handles GET /api/lessons/{lessonID}/sessions.
func (h *PracticeHandler) LessonSessions(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathUUID(w, r, "lessonID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sessions, err := h.practice.LessonSessions(r.Context(), lessonID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list lesson sessions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessions)
}

// RelatedLessons handles GET /api/skills/{skillID}/lessons.
func (h *PracticeHandler) RelatedLessons(w http.ResponseWriter, r *http.Request) {
	skillID, ok := pathUUID(w, r, "skillID")
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lessons, err := h.practice.RelatedLessons(r.Context(), skillID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list related lessons")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lessons)
}

// RecordLessonPractice handles POST /api/lessons/{lessonID}/practice.
func (h *PracticeHandler) RecordLessonPractice(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathUUID(w, r, "lessonID")
	if !ok {
		return
	}
	var req practice.LessonPracticeInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.practice.RecordLessonPractice(r.Context(), lessonID, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record lesson practice")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// RecordChallenge handles POST /api/learners/{learnerID}/challenges.
func (h *PracticeHandler) RecordChallenge(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := pathUUID(w, r, "learnerID")
	if !ok {
		return
	}
	var req practice.ChallengeInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.practice.RecordChallenge(r.Context(), learnerID, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record challenge")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
