package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// PostgresLearnerStore implements store.LearnerStore.
type PostgresLearnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLearnerStore creates a learner store on db, which may be a
// *sql.DB or a *sql.Tx. If logger is nil, a default logger is used.
func NewPostgresLearnerStore(db store.DBTX, logger *slog.Logger) *PostgresLearnerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLearnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "learner_store")),
	}
}

var _ store.LearnerStore = (*PostgresLearnerStore)(nil)

const learnerColumns = `id, level, current_streak, longest_streak, last_practice_date,
	total_practice_days, daily_goal, promoted_at, created_at, updated_at`

func scanLearner(row rowScanner) (*domain.Learner, error) {
	var (
		l        domain.Learner
		level    string
		lastDate sql.NullTime
		promoted sql.NullTime
	)
	err := row.Scan(
		&l.ID, &level, &l.CurrentStreak, &l.LongestStreak, &lastDate,
		&l.TotalPracticeDays, &l.DailyGoal, &promoted, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Level = domain.Level(level)
	if lastDate.Valid {
		d := domain.DateOf(lastDate.Time)
		l.LastPracticeDate = &d
	}
	if promoted.Valid {
		at := promoted.Time.UTC()
		l.PromotedAt = &at
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: domain.DateOf(*t), Valid: true}
}

// Create implements store.LearnerStore.Create
func (s *PostgresLearnerStore) Create(ctx context.Context, l *domain.Learner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := l.Validate(); err != nil {
		log.Warn("learner validation failed",
			slog.String("error", err.Error()),
			slog.String("learner_id", l.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learners (`+learnerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, string(l.Level), l.CurrentStreak, l.LongestStreak, nullDate(l.LastPracticeDate),
		l.TotalPracticeDays, l.DailyGoal, nullTime(l.PromotedAt), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrLearnerExists
		}
		log.Error("failed to insert learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", l.ID.String()))
		return store.NewStoreError("learner", "create", "insert failed", MapError(err))
	}

	log.Debug("learner created",
		slog.String("learner_id", l.ID.String()),
		slog.String("level", string(l.Level)))
	return nil
}

// GetByID implements store.LearnerStore.GetByID
func (s *PostgresLearnerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	return s.get(ctx, "get", `SELECT `+learnerColumns+` FROM learners WHERE id = $1`, id)
}

// GetByIDForUpdate implements store.LearnerStore.GetByIDForUpdate
func (s *PostgresLearnerStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	return s.get(ctx, "lock",
		`SELECT `+learnerColumns+` FROM learners WHERE id = $1 FOR NO KEY UPDATE`, id)
}

func (s *PostgresLearnerStore) get(ctx context.Context, op, query string, id uuid.UUID) (*domain.Learner, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	l, err := scanLearner(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("learner not found", slog.String("learner_id", id.String()))
			return nil, store.ErrLearnerNotFound
		}
		log.Error("failed to query learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", id.String()))
		return nil, store.NewStoreError("learner", op, "query failed", err)
	}
	return l, nil
}

// Update implements store.LearnerStore.Update
func (s *PostgresLearnerStore) Update(ctx context.Context, l *domain.Learner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := l.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learners
		SET level = $1, current_streak = $2, longest_streak = $3, last_practice_date = $4,
			total_practice_days = $5, daily_goal = $6, promoted_at = $7, updated_at = $8
		WHERE id = $9`,
		string(l.Level), l.CurrentStreak, l.LongestStreak, nullDate(l.LastPracticeDate),
		l.TotalPracticeDays, l.DailyGoal, nullTime(l.PromotedAt), l.UpdatedAt, l.ID,
	)
	if err != nil {
		log.Error("failed to update learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", l.ID.String()))
		return store.NewStoreError("learner", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrLearnerNotFound)
}

// WithTx implements store.LearnerStore.WithTx
func (s *PostgresLearnerStore) WithTx(tx *sql.Tx) store.LearnerStore {
	return &PostgresLearnerStore{db: tx, logger: s.logger}
}
