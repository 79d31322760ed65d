package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/linguist-api/internal/platform/logger"
)

// TxFn is a unit of work executed inside a database transaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction with default options. See
// RunInTransactionWithOptions.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	return RunInTransactionWithOptions(ctx, db, nil, fn)
}

// RunInTransactionWithOptions runs fn in a transaction. The transaction is
// committed when fn returns nil and rolled back when it returns an error or
// panics; a panic is re-raised after the rollback. The error returned by fn
// is passed through unchanged so callers can match sentinels.
func RunInTransactionWithOptions(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return NewStoreError("transaction", "begin", "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic", slog.Any("panic", p))
			}
			// ALLOW-PANIC: re-raising the caller's panic after cleanup
			panic(p)
		}
	}()

	if fnErr := fn(ctx, tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", fnErr.Error()))
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, fnErr)
		}
		log.Debug("rolled back transaction", slog.String("error", fnErr.Error()))
		return fnErr
	}

	if cmErr := tx.Commit(); cmErr != nil {
		log.Error("failed to commit transaction", slog.String("error", cmErr.Error()))
		return NewStoreError("transaction", "commit", "failed to commit transaction", cmErr)
	}
	return nil
}
