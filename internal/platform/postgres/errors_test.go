package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/linguist-api/internal/domain"
	"github.com/phrazzld/linguist-api/internal/platform/postgres"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "skill_records",
		ColumnName:     "rule_name",
		ConstraintName: "skill_records_user_rule_key",
	}
}

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", newPgError("23505"), store.ErrDuplicate},
		{"foreign key", newPgError("23503"), store.ErrInvalidEntity},
		{"check", newPgError("23514"), store.ErrInvalidEntity},
		{"not null", newPgError("23502"), store.ErrInvalidEntity},
		{"wrapped unique", fmt.Errorf("insert: %w", newPgError("23505")), store.ErrDuplicate},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := postgres.MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.target)
		})
	}

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unknown error passes through", func(t *testing.T) {
		t.Parallel()
		orig := errors.New("connection reset")
		assert.Same(t, orig, postgres.MapError(orig))
	})

	t.Run("duplicate maps to domain conflict", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, postgres.MapError(newPgError("23505")), domain.ErrConflict)
	})
}

func TestConstraintPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.True(t, postgres.IsForeignKeyViolation(newPgError("23503")))
	assert.False(t, postgres.IsForeignKeyViolation(errors.New("other")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrSkillNotFound))
	assert.ErrorIs(t,
		postgres.CheckRowsAffected(mockResult{rowsAffected: 0}, store.ErrSkillNotFound),
		store.ErrSkillNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))

	resultErr := errors.New("driver failure")
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{err: resultErr}, nil), resultErr)
}
