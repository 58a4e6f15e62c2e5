package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
)

// DealerStore defines the interface for dealer persistence.
// Weights reaching the store have already been validated as positive;
// implementations may additionally enforce it with a constraint.
type DealerStore interface {
	// Create saves a new dealer and any filter associations it carries.
	Create(ctx context.Context, dealer *domain.Dealer) error

	// GetByID retrieves a dealer with its filter associations.
	// Returns ErrDealerNotFound if the dealer does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dealer, error)

	// List returns every dealer ordered by title.
	List(ctx context.Context) ([]domain.DealerSummary, error)

	// Rename changes a dealer's title.
	// Returns ErrDealerNotFound if the dealer does not exist.
	Rename(ctx context.Context, id uuid.UUID, title string) error

	// Delete removes a dealer and its associations.
	// Returns ErrDealerNotFound if the dealer does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddFilter associates a filter with a dealer, replacing the weight of an
	// existing association.
	// Returns ErrDealerNotFound or ErrFilterNotFound for missing references.
	AddFilter(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error

	// RemoveFilter drops an association. Removing an absent association is a no-op.
	// Returns ErrDealerNotFound if the dealer does not exist.
	RemoveFilter(ctx context.Context, dealerID, filterID uuid.UUID) error

	// SetWeight changes the weight of an existing association.
	// Returns ErrDealerNotFound if the dealer does not exist and
	// ErrDealerFilterNotFound if the filter is not associated with it.
	SetWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error

	// ListFilters returns the dealer's associations joined with their filters,
	// so associations whose filter no longer exists are never returned.
	// Returns ErrDealerNotFound if the dealer does not exist.
	ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error)
}
