package store

import (
	"context"
	"database/sql"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so store code runs the
// same way inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Page bounds a list query. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageLimit is applied by services when a caller does not ask for a
// page size.
const DefaultPageLimit = 50

// Normalize clamps negative values and applies def when Limit is unset.
func (p Page) Normalize(def int) Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = def
	}
	return p
}
