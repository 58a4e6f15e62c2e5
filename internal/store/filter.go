package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
)

// FilterStore defines the interface for filter persistence.
// Each tag membership is an independent single-statement write.
type FilterStore interface {
	// Create saves a new filter and any tags it already carries.
	// Returns ErrPackNotFound if the filter's pack does not exist.
	Create(ctx context.Context, filter *domain.Filter) error

	// GetByID retrieves a filter with its tag memberships.
	// Returns ErrFilterNotFound if the filter does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Filter, error)

	// List returns every filter ordered by pack title, then label.
	List(ctx context.Context) ([]domain.FilterSummary, error)

	// UpsertTag adds a membership or updates the role of an existing one.
	// Returns ErrFilterNotFound if the filter does not exist.
	UpsertTag(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error

	// SetTagExclusion changes the role of an existing membership and reports
	// whether one was present. An absent tag is not created.
	// Returns ErrFilterNotFound if the filter does not exist.
	SetTagExclusion(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) (bool, error)

	// RemoveTag deletes a membership and reports whether one was present.
	// Returns ErrFilterNotFound if the filter does not exist.
	RemoveTag(ctx context.Context, filterID uuid.UUID, tag string) (bool, error)

	// Delete removes a filter. Its tags and any dealer associations go with it.
	// Returns ErrFilterNotFound if the filter does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
