// Package domain contains the core entities of the mastery engine: skill
// records, vocabulary cards, learners with their streak state machine,
// lessons and practice sessions. It is independent of any storage or
// delivery mechanism.
package domain
