// Package testutils provides helpers shared by package tests: a migrated
// temporary SQLite database with its stores, learner fixtures, a fixed clock
// and a slog handler that records entries in memory.
//
//	stores := testutils.NewSQLiteStores(t)
//	learner := testutils.CreateLearner(t, stores, domain.LevelA2)
package testutils
