// Package store defines the persistence interfaces of the mastery engine.
// Implementations live under internal/platform (postgres and sqlite) and
// are interchangeable: services only see these interfaces, a *sql.DB for
// transaction boundaries, and the errors declared here.
package store
