package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
)

// DefaultWeight is the weight given to a filter added to a dealer without one.
const DefaultWeight = 1

// Dealer is a weighted collection of filters used for two-stage selection:
// first a filter is chosen by weight, then the filter picks a card.
type Dealer struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Filters   []DealerFilter `json:"filters"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DealerSummary is the list view of a dealer.
type DealerSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// DealerFilter is one filter association of a dealer.
type DealerFilter struct {
	FilterID  uuid.UUID `json:"filter_id"`
	Label     string    `json:"label"`
	PackID    uuid.UUID `json:"pack_id"`
	PackTitle string    `json:"pack_title"`
	Weight    int       `json:"weight"`
}

// NewDealer creates a dealer with no filters.
func NewDealer(title string) (*Dealer, error) {
	now := time.Now().UTC()
	d := &Dealer{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Filters:   []DealerFilter{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the dealer's title and association weights.
func (d *Dealer) Validate() error {
	if d.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyLabel)
	}
	for _, f := range d.Filters {
		if err := ValidateWeight(f.Weight); err != nil {
			return err
		}
	}
	return nil
}

// WeightedFilterIDs returns the (filter id, weight) pairs fed to the weighted chooser.
func (d *Dealer) WeightedFilterIDs() []selection.Weighted[uuid.UUID] {
	return WeightedFilterIDs(d.Filters)
}

// WeightedFilterIDs converts dealer associations into weighted choice input.
func WeightedFilterIDs(filters []DealerFilter) []selection.Weighted[uuid.UUID] {
	items := make([]selection.Weighted[uuid.UUID], 0, len(filters))
	for _, f := range filters {
		items = append(items, selection.Weighted[uuid.UUID]{Item: f.FilterID, Weight: f.Weight})
	}
	return items
}
