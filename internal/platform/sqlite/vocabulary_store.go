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

// VocabularyStore implements store.VocabularyStore on SQLite.
type VocabularyStore struct {
	conn   conn
	logger *slog.Logger
}

// NewVocabularyStore creates a VocabularyStore.
func NewVocabularyStore(db *sqlx.DB, log *slog.Logger) *VocabularyStore {
	if log == nil {
		log = slog.Default()
	}
	return &VocabularyStore{
		conn:   newConn(db),
		logger: log.With(slog.String("component", "vocabulary_store")),
	}
}

var _ store.VocabularyStore = (*VocabularyStore)(nil)

type vocabularyRow struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Word         string    `db:"word"`
	Translation  string    `db:"translation"`
	ContextNote  string    `db:"context_note"`
	MasteryLevel int       `db:"mastery_level"`
	ReviewCount  int       `db:"review_count"`
	NextReviewAt int64     `db:"next_review_at"`
	CreatedAt    int64     `db:"created_at"`
	UpdatedAt    int64     `db:"updated_at"`
}

func (r vocabularyRow) toDomain() *domain.VocabularyCard {
	return &domain.VocabularyCard{
		ID:           r.ID,
		UserID:       r.UserID,
		Word:         r.Word,
		Translation:  r.Translation,
		ContextNote:  r.ContextNote,
		MasteryLevel: r.MasteryLevel,
		ReviewCount:  r.ReviewCount,
		NextReviewAt: fromMicros(r.NextReviewAt),
		CreatedAt:    fromMicros(r.CreatedAt),
		UpdatedAt:    fromMicros(r.UpdatedAt),
	}
}

const vocabularyColumns = `id, user_id, word, translation, context_note, mastery_level,
	review_count, next_review_at, created_at, updated_at`

// CreateIfAbsent implements store.VocabularyStore.
func (s *VocabularyStore) CreateIfAbsent(ctx context.Context, card *domain.VocabularyCard) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.conn.q.ExecContext(ctx, `
		INSERT INTO vocabulary_cards (`+vocabularyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, word) DO NOTHING`,
		card.ID, card.UserID, card.Word, card.Translation, card.ContextNote,
		card.MasteryLevel, card.ReviewCount, toMicros(card.NextReviewAt),
		toMicros(card.CreatedAt), toMicros(card.UpdatedAt),
	)
	if err != nil {
		log.Error("failed to insert vocabulary card",
			slog.String("error", err.Error()),
			slog.String("user_id", card.UserID.String()))
		return false, store.NewStoreError("vocabulary_card", "create", "insert failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, store.NewStoreError("vocabulary_card", "create", "rows affected", err)
	}
	return n == 1, nil
}

// GetByID implements store.VocabularyStore.
func (s *VocabularyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyCard, error) {
	return s.get(ctx, "get", id)
}

// GetByIDForUpdate implements store.VocabularyStore.
func (s *VocabularyStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.VocabularyCard, error) {
	return s.get(ctx, "lock", id)
}

func (s *VocabularyStore) get(ctx context.Context, op string, id uuid.UUID) (*domain.VocabularyCard, error) {
	var row vocabularyRow
	err := sqlx.GetContext(ctx, s.conn.q, &row,
		`SELECT `+vocabularyColumns+` FROM vocabulary_cards WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVocabularyCardNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query vocabulary card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, store.NewStoreError("vocabulary_card", op, "query failed", err)
	}
	return row.toDomain(), nil
}

// Update implements store.VocabularyStore.
func (s *VocabularyStore) Update(ctx context.Context, card *domain.VocabularyCard) error {
	result, err := s.conn.q.ExecContext(ctx, `
		UPDATE vocabulary_cards
		SET mastery_level = ?, review_count = ?, next_review_at = ?, updated_at = ?
		WHERE id = ?`,
		card.MasteryLevel, card.ReviewCount, toMicros(card.NextReviewAt), toMicros(card.UpdatedAt),
		card.ID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update vocabulary card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return store.NewStoreError("vocabulary_card", "update", "update failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrVocabularyCardNotFound)
}

// Delete implements store.VocabularyStore.
func (s *VocabularyStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.conn.q.ExecContext(ctx, `DELETE FROM vocabulary_cards WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("vocabulary_card", "delete", "delete failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrVocabularyCardNotFound)
}

// ListByUser implements store.VocabularyStore.
func (s *VocabularyStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.VocabularyCard, error) {
	return s.list(ctx, `WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, page, userID)
}

// ListDue implements store.VocabularyStore.
func (s *VocabularyStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, page store.Page) ([]*domain.VocabularyCard, error) {
	return s.list(ctx, `WHERE user_id = ? AND next_review_at <= ? ORDER BY next_review_at, rowid`,
		page, userID, toMicros(now))
}

func (s *VocabularyStore) list(ctx context.Context, clause string, page store.Page, args ...any) ([]*domain.VocabularyCard, error) {
	limit, offset := limitOffset(page.Limit, page.Offset)

	var rows []vocabularyRow
	err := sqlx.SelectContext(ctx, s.conn.q, &rows, `
		SELECT `+vocabularyColumns+` FROM vocabulary_cards
		`+clause+`
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, store.NewStoreError("vocabulary_card", "list", "query failed", err)
	}

	cards := make([]*domain.VocabularyCard, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, r.toDomain())
	}
	return cards, nil
}

// Stats implements store.VocabularyStore.
func (s *VocabularyStore) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (store.VocabularyStats, error) {
	var row struct {
		Total    int `db:"total"`
		Mastered int `db:"mastered"`
		Due      int `db:"due"`
	}
	err := sqlx.GetContext(ctx, s.conn.q, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN mastery_level >= ? THEN 1 ELSE 0 END), 0) AS mastered,
			COALESCE(SUM(CASE WHEN next_review_at <= ? THEN 1 ELSE 0 END), 0) AS due
		FROM vocabulary_cards
		WHERE user_id = ?`, domain.MasteredThreshold, toMicros(now), userID)
	if err != nil {
		return store.VocabularyStats{}, store.NewStoreError("vocabulary_card", "stats", "query failed", err)
	}
	return store.VocabularyStats{Total: row.Total, Mastered: row.Mastered, Due: row.Due}, nil
}

// CountAllDue implements store.VocabularyStore.
func (s *VocabularyStore) CountAllDue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.conn.q, &n,
		`SELECT COUNT(*) FROM vocabulary_cards WHERE next_review_at <= ?`, toMicros(now))
	if err != nil {
		return 0, store.NewStoreError("vocabulary_card", "count", "query failed", err)
	}
	return n, nil
}

// WithTx implements store.VocabularyStore.
func (s *VocabularyStore) WithTx(tx *sql.Tx) store.VocabularyStore {
	return &VocabularyStore{conn: s.conn.withTx(tx), logger: s.logger}
}
