package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// LearnerStore implements store.LearnerStore on SQLite.
type LearnerStore struct {
	conn   conn
	logger *slog.Logger
}

// NewLearnerStore creates a LearnerStore. A nil logger falls back to
// slog.Default.
func NewLearnerStore(db *sqlx.DB, log *slog.Logger) *LearnerStore {
	if log == nil {
		log = slog.Default()
	}
	return &LearnerStore{
		conn:   newConn(db),
		logger: log.With(slog.String("component", "learner_store")),
	}
}

var _ store.LearnerStore = (*LearnerStore)(nil)

type learnerRow struct {
	ID                uuid.UUID      `db:"id"`
	Level             string         `db:"level"`
	CurrentStreak     int            `db:"current_streak"`
	LongestStreak     int            `db:"longest_streak"`
	LastPracticeDate  sql.NullString `db:"last_practice_date"`
	TotalPracticeDays int            `db:"total_practice_days"`
	DailyGoal         int            `db:"daily_goal"`
	PromotedAt        sql.NullInt64  `db:"promoted_at"`
	CreatedAt         int64          `db:"created_at"`
	UpdatedAt         int64          `db:"updated_at"`
}

func (r learnerRow) toDomain() (*domain.Learner, error) {
	l := &domain.Learner{
		ID:                r.ID,
		Level:             domain.Level(r.Level),
		CurrentStreak:     r.CurrentStreak,
		LongestStreak:     r.LongestStreak,
		TotalPracticeDays: r.TotalPracticeDays,
		DailyGoal:         r.DailyGoal,
		CreatedAt:         fromMicros(r.CreatedAt),
		UpdatedAt:         fromMicros(r.UpdatedAt),
		PromotedAt:        fromNullMicros(r.PromotedAt),
	}
	if r.LastPracticeDate.Valid {
		d, err := fromDate(r.LastPracticeDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid last_practice_date %q: %w", r.LastPracticeDate.String, err)
		}
		l.LastPracticeDate = &d
	}
	return l, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: toDate(*t), Valid: true}
}

const learnerColumns = `id, level, current_streak, longest_streak, last_practice_date,
	total_practice_days, daily_goal, promoted_at, created_at, updated_at`

// Create implements store.LearnerStore.
func (s *LearnerStore) Create(ctx context.Context, l *domain.Learner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := l.Validate(); err != nil {
		return err
	}

	_, err := s.conn.q.ExecContext(ctx,
		`INSERT INTO learners (`+learnerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, string(l.Level), l.CurrentStreak, l.LongestStreak, nullDate(l.LastPracticeDate),
		l.TotalPracticeDays, l.DailyGoal, nullMicros(l.PromotedAt), toMicros(l.CreatedAt), toMicros(l.UpdatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrLearnerExists, err)
		}
		log.Error("failed to insert learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", l.ID.String()))
		return store.NewStoreError("learner", "create", "insert failed", MapError(err))
	}

	log.Debug("learner created", slog.String("learner_id", l.ID.String()))
	return nil
}

// GetByID implements store.LearnerStore.
func (s *LearnerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	return s.get(ctx, id)
}

// GetByIDForUpdate implements store.LearnerStore. The surrounding
// transaction already holds the database write lock.
func (s *LearnerStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	return s.get(ctx, id)
}

func (s *LearnerStore) get(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var row learnerRow
	err := sqlx.GetContext(ctx, s.conn.q, &row,
		`SELECT `+learnerColumns+` FROM learners WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLearnerNotFound
		}
		log.Error("failed to query learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", id.String()))
		return nil, store.NewStoreError("learner", "get", "query failed", err)
	}

	l, err := row.toDomain()
	if err != nil {
		return nil, store.NewStoreError("learner", "get", "corrupt row", err)
	}
	return l, nil
}

// Update implements store.LearnerStore.
func (s *LearnerStore) Update(ctx context.Context, l *domain.Learner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := l.Validate(); err != nil {
		return err
	}

	result, err := s.conn.q.ExecContext(ctx, `
		UPDATE learners
		SET level = ?, current_streak = ?, longest_streak = ?, last_practice_date = ?,
			total_practice_days = ?, daily_goal = ?, promoted_at = ?, updated_at = ?
		WHERE id = ?`,
		string(l.Level), l.CurrentStreak, l.LongestStreak, nullDate(l.LastPracticeDate),
		l.TotalPracticeDays, l.DailyGoal, nullMicros(l.PromotedAt), toMicros(l.UpdatedAt), l.ID,
	)
	if err != nil {
		log.Error("failed to update learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", l.ID.String()))
		return store.NewStoreError("learner", "update", "update failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrLearnerNotFound)
}

// WithTx implements store.LearnerStore.
func (s *LearnerStore) WithTx(tx *sql.Tx) store.LearnerStore {
	return &LearnerStore{conn: s.conn.withTx(tx), logger: s.logger}
}
