package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// PostgresLessonStore implements store.LessonStore. Grammar focus is a
// JSONB array.
type PostgresLessonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLessonStore creates a lesson store on db.
func NewPostgresLessonStore(db store.DBTX, logger *slog.Logger) *PostgresLessonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLessonStore{
		db:     db,
		logger: logger.With(slog.String("component", "lesson_store")),
	}
}

var _ store.LessonStore = (*PostgresLessonStore)(nil)

const lessonColumns = `id, user_id, topic, grammar_focus, vocabulary_list, times_attempted,
	best_score, completed, completed_at, created_at, updated_at`

func scanLesson(row rowScanner) (*domain.Lesson, error) {
	var (
		l           domain.Lesson
		focus       []byte
		completedAt sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.UserID, &l.Topic, &focus, &l.VocabularyList, &l.TimesAttempted,
		&l.BestScore, &l.Completed, &completedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(focus, &l.GrammarFocus); err != nil {
		return nil, fmt.Errorf("invalid grammar_focus: %w", err)
	}
	if l.GrammarFocus == nil {
		l.GrammarFocus = []string{}
	}
	l.CompletedAt = timePtr(completedAt)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

// Create implements store.LessonStore.Create
func (s *PostgresLessonStore) Create(ctx context.Context, l *domain.Lesson) error {
	focus := l.GrammarFocus
	if focus == nil {
		focus = []string{}
	}
	focusJSON, err := json.Marshal(focus)
	if err != nil {
		return store.NewStoreError("lesson", "create", "encode grammar focus", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lessons (`+lessonColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.UserID, l.Topic, string(focusJSON), l.VocabularyList, l.TimesAttempted,
		l.BestScore, l.Completed, nullTime(l.CompletedAt), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert lesson",
			slog.String("error", err.Error()),
			slog.String("user_id", l.UserID.String()))
		return store.NewStoreError("lesson", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.LessonStore.GetByID
func (s *PostgresLessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	return s.get(ctx, "get", `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
}

// GetByIDForUpdate implements store.LessonStore.GetByIDForUpdate
func (s *PostgresLessonStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	return s.get(ctx, "lock", `SELECT `+lessonColumns+` FROM lessons WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresLessonStore) get(ctx context.Context, op, query string, id uuid.UUID) (*domain.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLessonNotFound
		}
		return nil, store.NewStoreError("lesson", op, "query failed", err)
	}
	return l, nil
}

// Update implements store.LessonStore.Update
func (s *PostgresLessonStore) Update(ctx context.Context, l *domain.Lesson) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE lessons
		SET times_attempted = $1, best_score = $2, completed = $3, completed_at = $4, updated_at = $5
		WHERE id = $6`,
		l.TimesAttempted, l.BestScore, l.Completed, nullTime(l.CompletedAt), l.UpdatedAt, l.ID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update lesson",
			slog.String("error", err.Error()),
			slog.String("lesson_id", l.ID.String()))
		return store.NewStoreError("lesson", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrLessonNotFound)
}

// ListByUser implements store.LessonStore.ListByUser
func (s *PostgresLessonStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.Lesson, error) {
	return s.list(ctx, `
		SELECT `+lessonColumns+` FROM lessons
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, userID, pageLimit(page), max(page.Offset, 0))
}

// ListByRule implements store.LessonStore.ListByRule
func (s *PostgresLessonStore) ListByRule(ctx context.Context, userID uuid.UUID, ruleName string, page store.Page) ([]*domain.Lesson, error) {
	return s.list(ctx, `
		SELECT `+lessonColumns+` FROM lessons
		WHERE user_id = $1 AND grammar_focus @> jsonb_build_array($2::text)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`, userID, ruleName, pageLimit(page), max(page.Offset, 0))
}

func (s *PostgresLessonStore) list(ctx context.Context, query string, args ...any) ([]*domain.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("lesson", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	lessons := []*domain.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, store.NewStoreError("lesson", "list", "scan failed", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("lesson", "list", "iteration failed", err)
	}
	return lessons, nil
}

// Stats implements store.LessonStore.Stats
func (s *PostgresLessonStore) Stats(ctx context.Context, userID uuid.UUID) (store.LessonStats, error) {
	var stats store.LessonStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
		FROM lessons WHERE user_id = $1`, userID,
	).Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return store.LessonStats{}, store.NewStoreError("lesson", "stats", "query failed", err)
	}
	return stats, nil
}

// WithTx implements store.LessonStore.WithTx
func (s *PostgresLessonStore) WithTx(tx *sql.Tx) store.LessonStore {
	return &PostgresLessonStore{db: tx, logger: s.logger}
}
