package postgres

import (
	"database/sql"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/store"
)

// NewStores builds every PostgreSQL store on db.
func NewStores(db *sql.DB, logger *slog.Logger) store.Stores {
	return store.Stores{
		Learners:   NewPostgresLearnerStore(db, logger),
		Skills:     NewPostgresSkillStore(db, logger),
		Vocabulary: NewPostgresVocabularyStore(db, logger),
		Sessions:   NewPostgresSessionStore(db, logger),
		Lessons:    NewPostgresLessonStore(db, logger),
	}
}
