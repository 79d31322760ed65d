package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/logger"
	"github.com/phrazzld/linguist-api/internal/store"
)

// SkillStore implements store.SkillStore on SQLite. Insertion order is the
// table's rowid.
type SkillStore struct {
	conn   conn
	logger *slog.Logger
}

// NewSkillStore creates a SkillStore.
func NewSkillStore(db *sqlx.DB, log *slog.Logger) *SkillStore {
	if log == nil {
		log = slog.Default()
	}
	return &SkillStore{
		conn:   newConn(db),
		logger: log.With(slog.String("component", "skill_store")),
	}
}

var _ store.SkillStore = (*SkillStore)(nil)

type skillRow struct {
	ID              uuid.UUID     `db:"id"`
	UserID          uuid.UUID     `db:"user_id"`
	RuleName        string        `db:"rule_name"`
	MasteryLevel    int           `db:"mastery_level"`
	FailCount       int           `db:"fail_count"`
	PracticeCount   int           `db:"practice_count"`
	LastPracticedAt sql.NullInt64 `db:"last_practiced_at"`
	NextReviewAt    sql.NullInt64 `db:"next_review_at"`
	CreatedAt       int64         `db:"created_at"`
	UpdatedAt       int64         `db:"updated_at"`
}

func (r skillRow) toDomain() *domain.SkillRecord {
	return &domain.SkillRecord{
		ID:              r.ID,
		UserID:          r.UserID,
		RuleName:        r.RuleName,
		MasteryLevel:    r.MasteryLevel,
		FailCount:       r.FailCount,
		PracticeCount:   r.PracticeCount,
		LastPracticedAt: fromNullMicros(r.LastPracticedAt),
		NextReviewAt:    fromNullMicros(r.NextReviewAt),
		CreatedAt:       fromMicros(r.CreatedAt),
		UpdatedAt:       fromMicros(r.UpdatedAt),
	}
}

func skillsToDomain(rows []skillRow) []*domain.SkillRecord {
	out := make([]*domain.SkillRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

const skillColumns = `id, user_id, rule_name, mastery_level, fail_count, practice_count,
	last_practiced_at, next_review_at, created_at, updated_at`

// GetOrCreateForUpdate implements store.SkillStore. Under BEGIN IMMEDIATE the
// insert-then-select pair runs while holding the database write lock.
func (s *SkillStore) GetOrCreateForUpdate(ctx context.Context, candidate *domain.SkillRecord) (*domain.SkillRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	_, err := s.conn.q.ExecContext(ctx, `
		INSERT INTO skill_records (`+skillColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, rule_name) DO NOTHING`,
		candidate.ID, candidate.UserID, candidate.RuleName, candidate.MasteryLevel,
		candidate.FailCount, candidate.PracticeCount,
		nullMicros(candidate.LastPracticedAt), nullMicros(candidate.NextReviewAt),
		toMicros(candidate.CreatedAt), toMicros(candidate.UpdatedAt),
	)
	if err != nil {
		log.Error("failed to insert skill record",
			slog.String("error", err.Error()),
			slog.String("user_id", candidate.UserID.String()),
			slog.String("rule_name", candidate.RuleName))
		return nil, store.NewStoreError("skill_record", "create", "insert failed", MapError(err))
	}

	return s.GetByRule(ctx, candidate.UserID, candidate.RuleName)
}

// GetByID implements store.SkillStore.
func (s *SkillStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SkillRecord, error) {
	return s.getOne(ctx, "get", `SELECT `+skillColumns+` FROM skill_records WHERE id = ?`, id)
}

// GetByIDForUpdate implements store.SkillStore.
func (s *SkillStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SkillRecord, error) {
	return s.getOne(ctx, "lock", `SELECT `+skillColumns+` FROM skill_records WHERE id = ?`, id)
}

// GetByRule implements store.SkillStore.
func (s *SkillStore) GetByRule(ctx context.Context, userID uuid.UUID, ruleName string) (*domain.SkillRecord, error) {
	return s.getOne(ctx, "get",
		`SELECT `+skillColumns+` FROM skill_records WHERE user_id = ? AND rule_name = ?`,
		userID, ruleName)
}

func (s *SkillStore) getOne(ctx context.Context, op, query string, args ...any) (*domain.SkillRecord, error) {
	var row skillRow
	if err := sqlx.GetContext(ctx, s.conn.q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSkillNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query skill record",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("skill_record", op, "query failed", err)
	}
	return row.toDomain(), nil
}

// Update implements store.SkillStore.
func (s *SkillStore) Update(ctx context.Context, rec *domain.SkillRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rec.Validate(); err != nil {
		return err
	}

	result, err := s.conn.q.ExecContext(ctx, `
		UPDATE skill_records
		SET mastery_level = ?, fail_count = ?, practice_count = ?,
			last_practiced_at = ?, next_review_at = ?, updated_at = ?
		WHERE id = ?`,
		rec.MasteryLevel, rec.FailCount, rec.PracticeCount,
		nullMicros(rec.LastPracticedAt), nullMicros(rec.NextReviewAt), toMicros(rec.UpdatedAt),
		rec.ID,
	)
	if err != nil {
		log.Error("failed to update skill record",
			slog.String("error", err.Error()),
			slog.String("skill_id", rec.ID.String()))
		return store.NewStoreError("skill_record", "update", "update failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrSkillNotFound)
}

// ListByUser implements store.SkillStore.
func (s *SkillStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.SkillRecord, error) {
	limit, offset := limitOffset(page.Limit, page.Offset)
	return s.list(ctx, `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = ?
		ORDER BY rowid
		LIMIT ? OFFSET ?`, userID, limit, offset)
}

// ListWeak implements store.SkillStore.
func (s *SkillStore) ListWeak(ctx context.Context, userID uuid.UUID, threshold int, page store.Page) ([]*domain.SkillRecord, error) {
	limit, offset := limitOffset(page.Limit, page.Offset)
	return s.list(ctx, `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = ? AND mastery_level < ?
		ORDER BY mastery_level, rowid
		LIMIT ? OFFSET ?`, userID, threshold, limit, offset)
}

// ListDue implements store.SkillStore.
func (s *SkillStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, page store.Page) ([]*domain.SkillRecord, error) {
	limit, offset := limitOffset(page.Limit, page.Offset)
	return s.list(ctx, `
		SELECT `+skillColumns+` FROM skill_records
		WHERE user_id = ? AND next_review_at IS NOT NULL AND next_review_at <= ?
		ORDER BY next_review_at, rowid
		LIMIT ? OFFSET ?`, userID, toMicros(now), limit, offset)
}

func (s *SkillStore) list(ctx context.Context, query string, args ...any) ([]*domain.SkillRecord, error) {
	var rows []skillRow
	if err := sqlx.SelectContext(ctx, s.conn.q, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list skill records",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("skill_record", "list", "query failed", err)
	}
	return skillsToDomain(rows), nil
}

// CountDue implements store.SkillStore.
func (s *SkillStore) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.conn.q, &n, `
		SELECT COUNT(*) FROM skill_records
		WHERE user_id = ? AND next_review_at IS NOT NULL AND next_review_at <= ?`,
		userID, toMicros(now))
	if err != nil {
		return 0, store.NewStoreError("skill_record", "count", "query failed", err)
	}
	return n, nil
}

// CountAllDue implements store.SkillStore.
func (s *SkillStore) CountAllDue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.conn.q, &n, `
		SELECT COUNT(*) FROM skill_records
		WHERE next_review_at IS NOT NULL AND next_review_at <= ?`, toMicros(now))
	if err != nil {
		return 0, store.NewStoreError("skill_record", "count", "query failed", err)
	}
	return n, nil
}

// WithTx implements store.SkillStore.
func (s *SkillStore) WithTx(tx *sql.Tx) store.SkillStore {
	return &SkillStore{conn: s.conn.withTx(tx), logger: s.logger}
}
