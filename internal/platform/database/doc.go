// Package database opens the configured storage backend and applies the
// embedded goose migrations to it.
package database
