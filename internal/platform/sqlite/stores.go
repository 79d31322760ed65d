package sqlite

import (
	"database/sql"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/store"
)

// NewStores builds every SQLite store on db.
func NewStores(db *sql.DB, logger *slog.Logger) store.Stores {
	x := NewDB(db)
	return store.Stores{
		Learners:   NewLearnerStore(x, logger),
		Skills:     NewSkillStore(x, logger),
		Vocabulary: NewVocabularyStore(x, logger),
		Sessions:   NewSessionStore(x, logger),
		Lessons:    NewLessonStore(x, logger),
	}
}
