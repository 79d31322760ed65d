package store

// Stores bundles one implementation of every store for a backend.
type Stores struct {
	Learners   LearnerStore
	Skills     SkillStore
	Vocabulary VocabularyStore
	Sessions   SessionStore
	Lessons    LessonStore
}
