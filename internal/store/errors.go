package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrFilterNotFound, ErrDealerNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or when a write violates a check or not-null constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrPackNotFound indicates that the referenced pack does not exist.
	ErrPackNotFound = fmt.Errorf("%w: pack", ErrNotFound)

	// ErrCardNotFound indicates that the referenced card does not exist.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrFilterNotFound indicates that the referenced filter does not exist.
	ErrFilterNotFound = fmt.Errorf("%w: filter", ErrNotFound)

	// ErrDealerNotFound indicates that the referenced dealer does not exist.
	ErrDealerNotFound = fmt.Errorf("%w: dealer", ErrNotFound)

	// ErrDealerFilterNotFound indicates that a dealer has no association with the given filter.
	ErrDealerFilterNotFound = fmt.Errorf("%w: dealer filter", ErrNotFound)

	// ErrStudyNotFound indicates that the referenced study does not exist.
	ErrStudyNotFound = fmt.Errorf("%w: study", ErrNotFound)

	// ErrQueryNotFound indicates that the referenced saved query does not exist.
	ErrQueryNotFound = fmt.Errorf("%w: saved query", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Entity-specific errors wrap ErrNotFound, so a single errors.Is covers them all.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
