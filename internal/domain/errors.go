package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidWeight is returned when a dealer weight is zero or negative.
	ErrInvalidWeight = errors.New("weight must be a positive integer")

	// ErrEmptyLabel is returned when a filter label or dealer title is blank.
	ErrEmptyLabel = errors.New("label cannot be empty")

	// ErrEmptyTag is returned when a tag label is blank.
	ErrEmptyTag = errors.New("tag cannot be empty")

	// ErrInvalidLimit is returned when a study limit is negative.
	ErrInvalidLimit = errors.New("limit cannot be negative")
)

// ValidationError describes which field of an entity or request failed validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Field, e.Message, e.Err)
}

// Unwrap returns the wrapped sentinel so errors.Is works against it.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is makes every ValidationError match ErrValidation, whatever sentinel it wraps.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError. If err is nil, ErrValidation is used.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// ValidateWeight rejects weights that are not strictly positive.
func ValidateWeight(weight int) error {
	if weight <= 0 {
		return NewValidationError("weight", fmt.Sprintf("must be positive, got %d", weight), ErrInvalidWeight)
	}
	return nil
}
