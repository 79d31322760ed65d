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

// PostgresVocabularyStore implements store.VocabularyStore.
type PostgresVocabularyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVocabularyStore creates a vocabulary store on db.
func NewPostgresVocabularyStore(db store.DBTX, logger *slog.Logger) *PostgresVocabularyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVocabularyStore{
		db:     db,
		logger: logger.With(slog.String("component", "vocabulary_store")),
	}
}

var _ store.VocabularyStore = (*PostgresVocabularyStore)(nil)

const vocabularyColumns = `id, user_id, word, translation, context_note, mastery_level,
	review_count, next_review_at, created_at, updated_at`

func scanVocabulary(row rowScanner) (*domain.VocabularyCard, error) {
	var c domain.VocabularyCard
	err := row.Scan(
		&c.ID, &c.UserID, &c.Word, &c.Translation, &c.ContextNote, &c.MasteryLevel,
		&c.ReviewCount, &c.NextReviewAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.NextReviewAt = c.NextReviewAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// CreateIfAbsent implements store.VocabularyStore.CreateIfAbsent
func (s *PostgresVocabularyStore) CreateIfAbsent(ctx context.Context, card *domain.VocabularyCard) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO vocabulary_cards (`+vocabularyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, word) DO NOTHING`,
		card.ID, card.UserID, card.Word, card.Translation, card.ContextNote,
		card.MasteryLevel, card.ReviewCount, card.NextReviewAt, card.CreatedAt, card.UpdatedAt,
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

// GetByID implements store.VocabularyStore.GetByID
func (s *PostgresVocabularyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyCard, error) {
	return s.get(ctx, "get", `SELECT `+vocabularyColumns+` FROM vocabulary_cards WHERE id = $1`, id)
}

// GetByIDForUpdate implements store.VocabularyStore.GetByIDForUpdate
func (s *PostgresVocabularyStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.VocabularyCard, error) {
	return s.get(ctx, "lock",
		`SELECT `+vocabularyColumns+` FROM vocabulary_cards WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresVocabularyStore) get(ctx context.Context, op, query string, id uuid.UUID) (*domain.VocabularyCard, error) {
	card, err := scanVocabulary(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVocabularyCardNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query vocabulary card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, store.NewStoreError("vocabulary_card", op, "query failed", err)
	}
	return card, nil
}

// Update implements store.VocabularyStore.Update
func (s *PostgresVocabularyStore) Update(ctx context.Context, card *domain.VocabularyCard) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE vocabulary_cards
		SET mastery_level = $1, review_count = $2, next_review_at = $3, updated_at = $4
		WHERE id = $5`,
		card.MasteryLevel, card.ReviewCount, card.NextReviewAt, card.UpdatedAt, card.ID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update vocabulary card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return store.NewStoreError("vocabulary_card", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrVocabularyCardNotFound)
}

// Delete implements store.VocabularyStore.Delete
func (s *PostgresVocabularyStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vocabulary_cards WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("vocabulary_card", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrVocabularyCardNotFound)
}

// ListByUser implements store.VocabularyStore.ListByUser
func (s *PostgresVocabularyStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*domain.VocabularyCard, error) {
	return s.list(ctx, `
		SELECT `+vocabularyColumns+` FROM vocabulary_cards
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, userID, pageLimit(page), max(page.Offset, 0))
}

// ListDue implements store.VocabularyStore.ListDue
func (s *PostgresVocabularyStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, page store.Page) ([]*domain.VocabularyCard, error) {
	return s.list(ctx, `
		SELECT `+vocabularyColumns+` FROM vocabulary_cards
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at, created_at, id
		LIMIT $3 OFFSET $4`, userID, now, pageLimit(page), max(page.Offset, 0))
}

func (s *PostgresVocabularyStore) list(ctx context.Context, query string, args ...any) ([]*domain.VocabularyCard, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("vocabulary_card", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	cards := []*domain.VocabularyCard{}
	for rows.Next() {
		card, err := scanVocabulary(rows)
		if err != nil {
			return nil, store.NewStoreError("vocabulary_card", "list", "scan failed", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("vocabulary_card", "list", "iteration failed", err)
	}
	return cards, nil
}

// Stats implements store.VocabularyStore.Stats
func (s *PostgresVocabularyStore) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (store.VocabularyStats, error) {
	var stats store.VocabularyStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE mastery_level >= $2),
			COUNT(*) FILTER (WHERE next_review_at <= $3)
		FROM vocabulary_cards
		WHERE user_id = $1`, userID, domain.MasteredThreshold, now,
	).Scan(&stats.Total, &stats.Mastered, &stats.Due)
	if err != nil {
		return store.VocabularyStats{}, store.NewStoreError("vocabulary_card", "stats", "query failed", err)
	}
	return stats, nil
}

// CountAllDue implements store.VocabularyStore.CountAllDue
func (s *PostgresVocabularyStore) CountAllDue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vocabulary_cards WHERE next_review_at <= $1`, now).Scan(&n)
	if err != nil {
		return 0, store.NewStoreError("vocabulary_card", "count", "query failed", err)
	}
	return n, nil
}

// WithTx implements store.VocabularyStore.WithTx
func (s *PostgresVocabularyStore) WithTx(tx *sql.Tx) store.VocabularyStore {
	return &PostgresVocabularyStore{db: tx, logger: s.logger}
}
