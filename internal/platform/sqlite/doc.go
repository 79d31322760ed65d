// Package sqlite implements the store interfaces on SQLite using sqlx and
// mattn/go-sqlite3. It is the local and test backend: every transaction is
// opened with BEGIN IMMEDIATE (see database.SQLiteDSN), so ledger
// read-modify-write sequences are serialized by the database write lock.
//
// Timestamps are stored as UTC unix microseconds and calendar dates as
// YYYY-MM-DD text.
package sqlite
