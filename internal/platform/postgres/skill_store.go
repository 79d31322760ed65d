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

// PostgresSkillStore implements store.SkillStore. Insertion order is the
// seq identity column.
type PostgresSkillStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSkillStore creates a skill store on db.
func NewPostgresSkillStore(db store.DBTX, logger *slog.Logger) *PostgresSkillStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSkillStore{
		db:     db,
		logger: logger.With(slog.String("component", "skill_store")),
	}
}

var _ store.SkillStore = (*PostgresSkillStore)(nil)

const skillColumns = `id, user_id, rule_name, mastery_level, fail_count, practice_count,
	last_practiced_at, next_review_at, created_at, updated_at`

func scanSkill(row rowScanner) (*domain.SkillRecord, error) {
	var (
		r             domain.SkillRecord
		lastPracticed sql.NullTime
		nextReview    sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.RuleName, &r.MasteryLevel, &r.FailCount, &r.PracticeCount,
		&lastPracticed, &nextReview, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.LastPracticedAt = timePtr(lastPracticed)
	r.NextReviewAt = timePtr(nextReview)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// GetOrCreateForUpdate implements store.SkillStore.GetOrCreateForUpdate.
// The insert either creates the row or waits on a concurrent inserter, and
// the following SELECT ... FOR UPDATE serializes every caller on the key.
func (s *PostgresSkillStore) GetOrCreateForUpdate(ctx context.Context, candidate *domain.SkillRecord) (*domain.SkillRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skill_records (`+skillColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, rule_name) DO NOTHING`,
		candidate.ID, candidate.UserID, candidate.RuleName, candidate.MasteryLevel,
		candidate.FailCount, candidate.PracticeCount,
		nullTime(candidate.LastPracticedAt), nullTime(candidate.NextReviewAt),
		candidate.CreatedAt, candidate.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert skill record",
			slog.String("error", err.Error()),
			slog.String("user_id", candidate.UserID.String()),
			slog.String("rule_name", candidate.RuleName))
		return nil, store.NewStoreError("skill_record", "create", "insert failed", MapError(err))
	}

	return s.getOne(ctx, "lock", `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = $1 AND rule_name = $2
		FOR UPDATE`, candidate.UserID, candidate.RuleName)
}

// GetByID implements store.SkillStore.GetByID
func (s *PostgresSkillStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SkillRecord, error) {
	return s.getOne(ctx, "get", `SELECT `+skillColumns+` FROM skill_records WHERE id = $1`, id)
}

// GetByIDForUpdate implements store.SkillStore.GetByIDForUpdate
func (s *PostgresSkillStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SkillRecord, error) {
	return s.getOne(ctx, "lock",
		`SELECT `+skillColumns+` FROM skill_records WHERE id = $1 FOR UPDATE`, id)
}

// GetByRule implements store.SkillStore.GetByRule
func (s *PostgresSkillStore) GetByRule(ctx context.Context, userID uuid.UUID, ruleName string) (*domain.SkillRecord, error) {
	return s.getOne(ctx, "get",
		`SELECT `+skillColumns+` FROM skill_records WHERE user_id = $1 AND rule_name = $2`,
		userID, ruleName)
}

func (s *PostgresSkillStore) getOne(ctx context.Context, op, query string, args ...any) (*domain.SkillRecord, error) {
	rec, err := scanSkill(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSkillNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query skill record",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, store.NewStoreError("skill_record", op, "query failed", err)
	}
	return rec, nil
}

// Update implements store.SkillStore.Update
func (s *PostgresSkillStore) Update(ctx context.Context, rec *domain.SkillRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rec.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE skill_records
		SET mastery_level = $1, fail_count = $2, practice_count = $3,
			last_practiced_at = $4, next_review_at = $5, updated_at = $6
		WHERE id = $7`,
		rec.MasteryLevel, rec.FailCount, rec.PracticeCount,
		nullTime(rec.LastPracticedAt), nullTime(rec.NextReviewAt), rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		log.Error("failed to update skill record",
			slog.String("error", err.Error()),
			slog.String("skill_id", rec.ID.String()))
		return store.NewStoreError("skill_record", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrSkillNotFound)
}

// ListByUser implements store.SkillStore.ListByUser
func (s *PostgresSkillStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.SkillRecord, error) {
	return s.list(ctx, `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3`, userID, pageLimit(page), max(page.Offset, 0))
}

// ListWeak implements store.SkillStore.ListWeak
func (s *PostgresSkillStore) ListWeak(ctx context.Context, userID uuid.UUID, threshold int, page store.Page) ([]*domain.SkillRecord, error) {
	return s.list(ctx, `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = $1 AND mastery_level < $2
		ORDER BY mastery_level, seq
		LIMIT $3 OFFSET $4`, userID, threshold, pageLimit(page), max(page.Offset, 0))
}

// ListDue implements store.SkillStore.ListDue
func (s *PostgresSkillStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, page store.Page) ([]*domain.SkillRecord, error) {
	return s.list(ctx, `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = $1 AND next_review_at IS NOT NULL AND next_review_at <= $2
		ORDER BY next_review_at, seq
		LIMIT $3 OFFSET $4`, userID, now, pageLimit(page), max(page.Offset, 0))
}

func (s *PostgresSkillStore) list(ctx context.Context, query string, args ...any) ([]*domain.SkillRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list skill records",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("skill_record", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	records := []*domain.SkillRecord{}
	for rows.Next() {
		rec, err := scanSkill(rows)
		if err != nil {
			return nil, store.NewStoreError("skill_record", "list", "scan failed", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("skill_record", "list", "iteration failed", err)
	}
	return records, nil
}

// CountDue implements store.SkillStore.CountDue
func (s *PostgresSkillStore) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM skill_records
		WHERE user_id = $1 AND next_review_at IS NOT NULL AND next_review_at <= $2`,
		userID, now).Scan(&n)
	if err != nil {
		return 0, store.NewStoreError("skill_record", "count", "query failed", err)
	}
	return n, nil
}

// CountAllDue implements store.SkillStore.CountAllDue
func (s *PostgresSkillStore) CountAllDue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM skill_records
		WHERE next_review_at IS NOT NULL AND next_review_at <= $1`, now).Scan(&n)
	if err != nil {
		return 0, store.NewStoreError("skill_record", "count", "query failed", err)
	}
	return n, nil
}

// WithTx implements store.SkillStore.WithTx
func (s *PostgresSkillStore) WithTx(tx *sql.Tx) store.SkillStore {
	return &PostgresSkillStore{db: tx, logger: s.logger}
}

// pageLimit converts a zero limit to NULL, which PostgreSQL treats as LIMIT ALL.
func pageLimit(page store.Page) any {
	if page.Limit <= 0 {
		return nil
	}
	return page.Limit
}
