// Package service contains the application use cases of the mastery engine.
// Services coordinate domain policy with the stores, own transaction
// boundaries and translate failures into the domain error taxonomy.
//
// This package holds learner provisioning and the shared error and clock
// helpers. The ledger, vocabulary, progress and practice subpackages hold
// the remaining operations.
package service
