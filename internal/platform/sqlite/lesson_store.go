package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// LessonStore implements store.LessonStore on SQLite. Grammar focus is
// stored as a JSON array.
type LessonStore struct {
	conn   conn
	logger *slog.Logger
}

// NewLessonStore creates a LessonStore.
func NewLessonStore(db *sqlx.DB, log *slog.Logger) *LessonStore {
	if log == nil {
		log = slog.Default()
	}
	return &LessonStore{
		conn:   newConn(db),
		logger: log.With(slog.String("component", "lesson_store")),
	}
}

var _ store.LessonStore = (*LessonStore)(nil)

type lessonRow struct {
	ID             uuid.UUID     `db:"id"`
	UserID         uuid.UUID     `db:"user_id"`
	Topic          string        `db:"topic"`
	GrammarFocus   string        `db:"grammar_focus"`
	VocabularyList string        `db:"vocabulary_list"`
	TimesAttempted int           `db:"times_attempted"`
	BestScore      float64       `db:"best_score"`
	Completed      bool          `db:"completed"`
	CompletedAt    sql.NullInt64 `db:"completed_at"`
	CreatedAt      int64         `db:"created_at"`
	UpdatedAt      int64         `db:"updated_at"`
}

func (r lessonRow) toDomain() (*domain.Lesson, error) {
	var focus []string
	if err := json.Unmarshal([]byte(r.GrammarFocus), &focus); err != nil {
		return nil, fmt.Errorf("invalid grammar_focus: %w", err)
	}
	if focus == nil {
		focus = []string{}
	}
	return &domain.Lesson{
		ID:             r.ID,
		UserID:         r.UserID,
		Topic:          r.Topic,
		GrammarFocus:   focus,
		VocabularyList: r.VocabularyList,
		TimesAttempted: r.TimesAttempted,
		BestScore:      r.BestScore,
		Completed:      r.Completed,
		CompletedAt:    fromNullMicros(r.CompletedAt),
		CreatedAt:      fromMicros(r.CreatedAt),
		UpdatedAt:      fromMicros(r.UpdatedAt),
	}, nil
}

const lessonColumns = `id, user_id, topic, grammar_focus, vocabulary_list, times_attempted,
	best_score, completed, completed_at, created_at, updated_at`

func encodeFocus(focus []string) (string, error) {
	if focus == nil {
		focus = []string{}
	}
	b, err := json.Marshal(focus)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create implements store.LessonStore.
func (s *LessonStore) Create(ctx context.Context, l *domain.Lesson) error {
	focus, err := encodeFocus(l.GrammarFocus)
	if err != nil {
		return store.NewStoreError("lesson", "create", "encode grammar focus", err)
	}

	_, err = s.conn.q.ExecContext(ctx, `
		INSERT INTO lessons (`+lessonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Topic, focus, l.VocabularyList, l.TimesAttempted,
		l.BestScore, l.Completed, nullMicros(l.CompletedAt), toMicros(l.CreatedAt), toMicros(l.UpdatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert lesson",
			slog.String("error", err.Error()),
			slog.String("user_id", l.UserID.String()))
		return store.NewStoreError("lesson", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.LessonStore.
func (s *LessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	return s.get(ctx, "get", id)
}

// GetByIDForUpdate implements store.LessonStore.
func (s *LessonStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	return s.get(ctx, "lock", id)
}

func (s *LessonStore) get(ctx context.Context, op string, id uuid.UUID) (*domain.Lesson, error) {
	var row lessonRow
	err := sqlx.GetContext(ctx, s.conn.q, &row,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLessonNotFound
		}
		return nil, store.NewStoreError("lesson", op, "query failed", err)
	}

	l, err := row.toDomain()
	if err != nil {
		return nil, store.NewStoreError("lesson", op, "corrupt row", err)
	}
	return l, nil
}

// Update implements store.LessonStore.
func (s *LessonStore) Update(ctx context.Context, l *domain.Lesson) error {
	result, err := s.conn.q.ExecContext(ctx, `
		UPDATE lessons
		SET times_attempted = ?, best_score = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		l.TimesAttempted, l.BestScore, l.Completed, nullMicros(l.CompletedAt), toMicros(l.UpdatedAt),
		l.ID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update lesson",
			slog.String("error", err.Error()),
			slog.String("lesson_id", l.ID.String()))
		return store.NewStoreError("lesson", "update", "update failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrLessonNotFound)
}

// ListByUser implements store.LessonStore.
func (s *LessonStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.Lesson, error) {
	return s.list(ctx, `WHERE user_id = ?`, page, userID)
}

// ListByRule implements store.LessonStore.
func (s *LessonStore) ListByRule(ctx context.Context, userID uuid.UUID, ruleName string, page store.Page) ([]*domain.Lesson, error) {
	return s.list(ctx, `
		WHERE user_id = ?
		AND EXISTS (SELECT 1 FROM json_each(lessons.grammar_focus) WHERE json_each.value = ?)`,
		page, userID, ruleName)
}

func (s *LessonStore) list(ctx context.Context, where string, page store.Page, args ...any) ([]*domain.Lesson, error) {
	limit, offset := limitOffset(page.Limit, page.Offset)

	var rows []lessonRow
	err := sqlx.SelectContext(ctx, s.conn.q, &rows, `
		SELECT `+lessonColumns+` FROM lessons
		`+where+`
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, store.NewStoreError("lesson", "list", "query failed", err)
	}

	lessons := make([]*domain.Lesson, 0, len(rows))
	for _, r := range rows {
		l, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("lesson", "list", "corrupt row", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}

// Stats implements store.LessonStore.
func (s *LessonStore) Stats(ctx context.Context, userID uuid.UUID) (store.LessonStats, error) {
	var row struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}
	err := sqlx.GetContext(ctx, s.conn.q, &row, `
		SELECT COUNT(*) AS total, COALESCE(SUM(completed), 0) AS completed
		FROM lessons WHERE user_id = ?`, userID)
	if err != nil {
		return store.LessonStats{}, store.NewStoreError("lesson", "stats", "query failed", err)
	}
	return store.LessonStats{Total: row.Total, Completed: row.Completed}, nil
}

// WithTx implements store.LessonStore.
func (s *LessonStore) WithTx(tx *sql.Tx) store.LessonStore {
	return &LessonStore{conn: s.conn.withTx(tx), logger: s.logger}
}
