package sqlite

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// DriverName is the database/sql driver the stores expect.
const DriverName = "sqlite3"

// conn pairs the root handle with the executor statements run against,
// which is either the root handle or a transaction.
type conn struct {
	root *sqlx.DB
	q    sqlx.ExtContext
}

func newConn(db *sqlx.DB) conn {
	if db == nil {
		panic("db cannot be nil")
	}
	return conn{root: db, q: db}
}

func (c conn) withTx(tx *sql.Tx) conn {
	return conn{root: c.root, q: &sqlx.Tx{Tx: tx, Mapper: c.root.Mapper}}
}

// NewDB wraps an open *sql.DB for use with the stores in this package.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, DriverName)
}

const dateLayout = "2006-01-02"

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMicros(*t), Valid: true}
}

func fromNullMicros(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}

func toDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func fromDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func limitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as no limit.
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
