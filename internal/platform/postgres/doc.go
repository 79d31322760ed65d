// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver.
//
// Ledger writes rely on row locks: skill records are created with
// INSERT ... ON CONFLICT DO NOTHING and then locked with SELECT ... FOR
// UPDATE, and learners are locked with FOR NO KEY UPDATE so that foreign
// key checks of concurrent inserts are not blocked.
package postgres
