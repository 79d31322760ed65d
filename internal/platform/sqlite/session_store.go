package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// SessionStore implements store.SessionStore on SQLite.
type SessionStore struct {
	conn   conn
	logger *slog.Logger
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(db *sqlx.DB, log *slog.Logger) *SessionStore {
	if log == nil {
		log = slog.Default()
	}
	return &SessionStore{
		conn:   newConn(db),
		logger: log.With(slog.String("component", "session_store")),
	}
}

var _ store.SessionStore = (*SessionStore)(nil)

type sessionRow struct {
	ID           uuid.UUID     `db:"id"`
	UserID       uuid.UUID     `db:"user_id"`
	LessonID     uuid.NullUUID `db:"lesson_id"`
	Kind         string        `db:"kind"`
	Accuracy     float64       `db:"accuracy"`
	ErrorCount   int           `db:"error_count"`
	Feedback     string        `db:"feedback"`
	PracticeDate string        `db:"practice_date"`
	CreatedAt    int64         `db:"created_at"`
}

func (r sessionRow) toDomain() (*domain.PracticeSession, error) {
	date, err := fromDate(r.PracticeDate)
	if err != nil {
		return nil, fmt.Errorf("invalid practice_date %q: %w", r.PracticeDate, err)
	}
	s := &domain.PracticeSession{
		ID:           r.ID,
		UserID:       r.UserID,
		Kind:         domain.PracticeKind(r.Kind),
		Accuracy:     r.Accuracy,
		ErrorCount:   r.ErrorCount,
		Feedback:     r.Feedback,
		PracticeDate: date,
		CreatedAt:    fromMicros(r.CreatedAt),
	}
	if r.LessonID.Valid {
		id := r.LessonID.UUID
		s.LessonID = &id
	}
	return s, nil
}

const sessionColumns = `id, user_id, lesson_id, kind, accuracy, error_count, feedback,
	practice_date, created_at`

// Create implements store.SessionStore.
func (s *SessionStore) Create(ctx context.Context, session *domain.PracticeSession) error {
	var lessonID uuid.NullUUID
	if session.LessonID != nil {
		lessonID = uuid.NullUUID{UUID: *session.LessonID, Valid: true}
	}

	_, err := s.conn.q.ExecContext(ctx, `
		INSERT INTO practice_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, lessonID, string(session.Kind), session.Accuracy,
		session.ErrorCount, session.Feedback, toDate(session.PracticeDate), toMicros(session.CreatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert practice session",
			slog.String("error", err.Error()),
			slog.String("user_id", session.UserID.String()))
		return store.NewStoreError("practice_session", "create", "insert failed", MapError(err))
	}
	return nil
}

// Stats implements store.SessionStore.
func (s *SessionStore) Stats(ctx context.Context, userID uuid.UUID, today time.Time) (store.SessionStats, error) {
	day := domain.DateOf(today)

	var row struct {
		Total           int     `db:"total"`
		AverageAccuracy float64 `db:"average_accuracy"`
		LastSevenDays   int     `db:"last_seven_days"`
		Today           int     `db:"today"`
	}
	err := sqlx.GetContext(ctx, s.conn.q, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(AVG(accuracy), 0) AS average_accuracy,
			COALESCE(SUM(CASE WHEN practice_date > ? THEN 1 ELSE 0 END), 0) AS last_seven_days,
			COALESCE(SUM(CASE WHEN practice_date = ? THEN 1 ELSE 0 END), 0) AS today
		FROM practice_sessions
		WHERE user_id = ?`,
		toDate(day.AddDate(0, 0, -7)), toDate(day), userID)
	if err != nil {
		return store.SessionStats{}, store.NewStoreError("practice_session", "stats", "query failed", err)
	}
	return store.SessionStats{
		Total:           row.Total,
		AverageAccuracy: row.AverageAccuracy,
		LastSevenDays:   row.LastSevenDays,
		Today:           row.Today,
	}, nil
}

// ListByUser implements store.SessionStore.
func (s *SessionStore) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, page store.Page) ([]*domain.PracticeSession, error) {
	return s.list(ctx, `WHERE user_id = ? AND practice_date >= ?`, page, userID, toDate(since))
}

// ListByLesson implements store.SessionStore.
func (s *SessionStore) ListByLesson(ctx context.Context, lessonID uuid.UUID, page store.Page) ([]*domain.PracticeSession, error) {
	return s.list(ctx, `WHERE lesson_id = ?`, page, lessonID)
}

func (s *SessionStore) list(ctx context.Context, where string, page store.Page, args ...any) ([]*domain.PracticeSession, error) {
	limit, offset := limitOffset(page.Limit, page.Offset)

	var rows []sessionRow
	err := sqlx.SelectContext(ctx, s.conn.q, &rows, `
		SELECT `+sessionColumns+` FROM practice_sessions
		`+where+`
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, store.NewStoreError("practice_session", "list", "query failed", err)
	}

	sessions := make([]*domain.PracticeSession, 0, len(rows))
	for _, r := range rows {
		session, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("practice_session", "list", "corrupt row", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// WithTx implements store.SessionStore.
func (s *SessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SessionStore{conn: s.conn.withTx(tx), logger: s.logger}
}
