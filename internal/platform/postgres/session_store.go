package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// PostgresSessionStore implements store.SessionStore.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a practice session store on db.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

const sessionColumns = `id, user_id, lesson_id, kind, accuracy, error_count, feedback,
	practice_date, created_at`

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.PracticeSession) error {
	var lessonID uuid.NullUUID
	if session.LessonID != nil {
		lessonID = uuid.NullUUID{UUID: *session.LessonID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO practice_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, session.UserID, lessonID, string(session.Kind), session.Accuracy,
		session.ErrorCount, session.Feedback, domain.DateOf(session.PracticeDate), session.CreatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert practice session",
			slog.String("error", err.Error()),
			slog.String("user_id", session.UserID.String()))
		return store.NewStoreError("practice_session", "create", "insert failed", MapError(err))
	}
	return nil
}

// Stats implements store.SessionStore.Stats
func (s *PostgresSessionStore) Stats(ctx context.Context, userID uuid.UUID, today time.Time) (store.SessionStats, error) {
	day := domain.DateOf(today)

	var stats store.SessionStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(accuracy), 0),
			COUNT(*) FILTER (WHERE practice_date > $2::date),
			COUNT(*) FILTER (WHERE practice_date = $3::date)
		FROM practice_sessions
		WHERE user_id = $1`, userID, day.AddDate(0, 0, -7), day,
	).Scan(&stats.Total, &stats.AverageAccuracy, &stats.LastSevenDays, &stats.Today)
	if err != nil {
		return store.SessionStats{}, store.NewStoreError("practice_session", "stats", "query failed", err)
	}
	return stats, nil
}

// ListByUser implements store.SessionStore.ListByUser
func (s *PostgresSessionStore) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, page store.Page) ([]*domain.PracticeSession, error) {
	return s.list(ctx, `
		SELECT `+sessionColumns+` FROM practice_sessions
		WHERE user_id = $1 AND practice_date >= $2::date
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`, userID, domain.DateOf(since), pageLimit(page), max(page.Offset, 0))
}

// ListByLesson implements store.SessionStore.ListByLesson
func (s *PostgresSessionStore) ListByLesson(ctx context.Context, lessonID uuid.UUID, page store.Page) ([]*domain.PracticeSession, error) {
	return s.list(ctx, `
		SELECT `+sessionColumns+` FROM practice_sessions
		WHERE lesson_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, lessonID, pageLimit(page), max(page.Offset, 0))
}

func (s *PostgresSessionStore) list(ctx context.Context, query string, args ...any) ([]*domain.PracticeSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("practice_session", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := []*domain.PracticeSession{}
	for rows.Next() {
		var (
			ps       domain.PracticeSession
			lessonID uuid.NullUUID
			kind     string
		)
		if err := rows.Scan(
			&ps.ID, &ps.UserID, &lessonID, &kind, &ps.Accuracy, &ps.ErrorCount, &ps.Feedback,
			&ps.PracticeDate, &ps.CreatedAt,
		); err != nil {
			return nil, store.NewStoreError("practice_session", "list", "scan failed", err)
		}
		ps.Kind = domain.PracticeKind(kind)
		if lessonID.Valid {
			id := lessonID.UUID
			ps.LessonID = &id
		}
		ps.PracticeDate = domain.DateOf(ps.PracticeDate)
		ps.CreatedAt = ps.CreatedAt.UTC()
		sessions = append(sessions, &ps)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("practice_session", "list", "iteration failed", err)
	}
	return sessions, nil
}

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}
