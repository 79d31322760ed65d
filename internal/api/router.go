package api

import (
	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers mounted by RegisterRoutes.
type Handlers struct {
	Learners   *LearnerHandler
	Skills     *SkillHandler
	Vocabulary *VocabularyHandler
	Progress   *ProgressHandler
	Practice   *PracticeHandler
}

// RegisterRoutes mounts every API endpoint under /api.
func RegisterRoutes(r chi.Router, h Handlers) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/learners", h.Learners.Create)

		r.Route("/learners/{learnerID}", func(r chi.Router) {
			r.Get("/", h.Learners.Get)

			// Skill ledger
			r.Post("/outcomes", h.Skills.RecordOutcome)
			r.Get("/skills", h.Skills.List)
			r.Get("/skills/weak", h.Skills.ListWeak)
			r.Get("/skills/due", h.Skills.ListDue)

			// Vocabulary
			r.Post("/vocabulary", h.Vocabulary.Import)
			r.Get("/vocabulary", h.Vocabulary.List)
			r.Get("/vocabulary/due", h.Vocabulary.Due)
			r.Get("/vocabulary/stats", h.Vocabulary.Stats)

			// Progress
			r.Post("/promotion", h.Progress.Evaluate)
			r.Get("/dashboard", h.Progress.Dashboard)
			r.Get("/timeline", h.Progress.Timeline)

			// Practice
			r.Post("/lessons", h.Practice.CreateLesson)
			r.Get("/lessons", h.Practice.ListLessons)
			r.Post("/challenges", h.Practice.RecordChallenge)
		})

		r.Post("/skills/{skillID}/grade", h.Skills.GradeBatch)
		r.Get("/skills/{skillID}/lessons", h.Practice.RelatedLessons)
		r.Post("/vocabulary/{cardID}/review", h.Vocabulary.Review)
		r.Delete("/vocabulary/{cardID}", h.Vocabulary.Delete)
		r.Get("/lessons/{lessonID}", h.Practice.GetLesson)
		r.Get("/lessons/{lessonID}/sessions", h.Practice.LessonSessions)
		r.Post("/lessons/{lessonID}/practice", h.Practice.RecordLessonPractice)
	})
}
