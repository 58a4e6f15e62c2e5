package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
)

// FilterTag is one tag membership of a filter. Exclude selects its role:
// false means the tag is required, true means it must be absent.
type FilterTag struct {
	Tag     string `json:"tag"`
	Exclude bool   `json:"exclude"`
}

// Filter is a saved tag criterion scoped to a single pack.
type Filter struct {
	ID        uuid.UUID   `json:"id"`
	PackID    uuid.UUID   `json:"pack_id"`
	Label     string      `json:"label"`
	Tags      []FilterTag `json:"tags"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FilterSummary is the list view of a filter, carrying its pack title for grouping.
type FilterSummary struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	PackID    uuid.UUID `json:"pack_id"`
	PackTitle string    `json:"pack_title"`
}

// FilterDetail is a filter together with whether it currently matches any card.
type FilterDetail struct {
	Filter
	IsValid bool `json:"is_valid"`
}

// FilterListing is a filter summary with its current validity.
type FilterListing struct {
	FilterSummary
	IsValid bool `json:"is_valid"`
}

// FilterGroup is the filters of one pack, as shown in a grouped listing.
type FilterGroup struct {
	PackID    uuid.UUID       `json:"pack_id"`
	PackTitle string          `json:"pack_title"`
	Filters   []FilterListing `json:"filters"`
}

// GroupByPack groups listings by pack, keeping first-seen pack order and the
// order of filters within each pack.
func GroupByPack(listings []FilterListing) []FilterGroup {
	groups := make([]FilterGroup, 0)
	index := make(map[uuid.UUID]int)
	for _, l := range listings {
		i, ok := index[l.PackID]
		if !ok {
			i = len(groups)
			index[l.PackID] = i
			groups = append(groups, FilterGroup{PackID: l.PackID, PackTitle: l.PackTitle, Filters: []FilterListing{}})
		}
		groups[i].Filters = append(groups[i].Filters, l)
	}
	return groups
}

// NewFilter creates a filter with no tags for the given pack.
func NewFilter(packID uuid.UUID, label string) (*Filter, error) {
	now := time.Now().UTC()
	f := &Filter{
		ID:        uuid.New(),
		PackID:    packID,
		Label:     strings.TrimSpace(label),
		Tags:      []FilterTag{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the filter's identity fields and tag labels.
func (f *Filter) Validate() error {
	if f.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if f.PackID == uuid.Nil {
		return NewValidationError("pack_id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(f.Label) == "" {
		return NewValidationError("label", "cannot be empty", ErrEmptyLabel)
	}
	for _, t := range f.Tags {
		if err := ValidateTag(t.Tag); err != nil {
			return err
		}
	}
	return nil
}

// AddTag upserts a membership: an existing tag has its role updated,
// otherwise the tag is appended. Calling it twice with the same arguments
// leaves a single membership.
func (f *Filter) AddTag(tag string, exclude bool) {
	for i := range f.Tags {
		if f.Tags[i].Tag == tag {
			f.Tags[i].Exclude = exclude
			return
		}
	}
	f.Tags = append(f.Tags, FilterTag{Tag: tag, Exclude: exclude})
}

// SetExcluded changes the role of an existing membership. It reports whether
// the tag was present; an absent tag is left absent.
func (f *Filter) SetExcluded(tag string, exclude bool) bool {
	for i := range f.Tags {
		if f.Tags[i].Tag == tag {
			f.Tags[i].Exclude = exclude
			return true
		}
	}
	return false
}

// RemoveTag drops a membership and reports whether it was present.
func (f *Filter) RemoveTag(tag string) bool {
	for i := range f.Tags {
		if f.Tags[i].Tag == tag {
			f.Tags = append(f.Tags[:i], f.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// Criterion converts the filter's memberships into a selection criterion.
func (f *Filter) Criterion() selection.TagCriterion {
	return CriterionFromTags(f.Tags)
}

// Matches reports whether a card with the given tags satisfies the filter.
func (f *Filter) Matches(tags selection.TagSet) bool {
	return f.Criterion().Matches(tags)
}

// CriterionFromTags splits memberships into included and excluded labels.
func CriterionFromTags(tags []FilterTag) selection.TagCriterion {
	c := selection.TagCriterion{
		Included: []string{},
		Excluded: []string{},
	}
	for _, t := range tags {
		if t.Exclude {
			c.Excluded = append(c.Excluded, t.Tag)
		} else {
			c.Included = append(c.Included, t.Tag)
		}
	}
	return c
}

// ValidateTag rejects blank tag labels. Labels are otherwise taken verbatim.
func ValidateTag(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return NewValidationError("tag", "cannot be empty", ErrEmptyTag)
	}
	return nil
}
