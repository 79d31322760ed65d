package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phrazzld/linguist-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCounterDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+t.TempDir()+"/tx.db?_txlock=immediate")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE counter (n INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO counter (n) VALUES (0)`)
	require.NoError(t, err)
	return db
}

func readCounter(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT n FROM counter`).Scan(&n))
	return n
}

func increment(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `UPDATE counter SET n = n + 1`)
	return err
}

func TestRunInTransactionCommits(t *testing.T) {
	db := openCounterDB(t)

	err := store.RunInTransaction(context.Background(), db, increment)
	require.NoError(t, err)
	assert.Equal(t, 1, readCounter(t, db))
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	db := openCounterDB(t)
	sentinel := errors.New("stop")

	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		if err := increment(ctx, tx); err != nil {
			return err
		}
		return sentinel
	})

	assert.Same(t, sentinel, err)
	assert.Equal(t, 0, readCounter(t, db))
}

func TestRunInTransactionRollsBackOnPanic(t *testing.T) {
	db := openCounterDB(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
			_ = increment(ctx, tx)
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, readCounter(t, db))
}

func TestRunInTransactionBeginFailure(t *testing.T) {
	db := openCounterDB(t)
	require.NoError(t, db.Close())

	err := store.RunInTransaction(context.Background(), db, increment)
	require.Error(t, err)
	assert.True(t, store.IsStoreError(err))
}
