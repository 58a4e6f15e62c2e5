package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// FilterStore implements store.FilterStore in memory.
type FilterStore struct {
	db *DB
}

// Ensure FilterStore implements store.FilterStore
var _ store.FilterStore = (*FilterStore)(nil)

// NewFilterStore creates a filter store over db.
func NewFilterStore(db *DB) *FilterStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &FilterStore{db: db}
}

// Create implements store.FilterStore.
func (s *FilterStore) Create(ctx context.Context, filter *domain.Filter) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.packs[filter.PackID]; !ok {
		return store.ErrPackNotFound
	}
	if _, ok := s.db.filters[filter.ID]; ok {
		return fmt.Errorf("%w: filter %s", store.ErrDuplicate, filter.ID)
	}

	stored := cloneFilter(*filter)
	stored.Tags = stored.Tags[:0]
	for _, t := range filter.Tags {
		stored.Tags = upsertTag(stored.Tags, t.Tag, t.Exclude)
	}
	s.db.filters[filter.ID] = stored
	return nil
}

// GetByID implements store.FilterStore.
func (s *FilterStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Filter, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	f, ok := s.db.filters[id]
	if !ok {
		return nil, store.ErrFilterNotFound
	}
	f = cloneFilter(f)
	return &f, nil
}

// List implements store.FilterStore.
func (s *FilterStore) List(ctx context.Context) ([]domain.FilterSummary, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	summaries := make([]domain.FilterSummary, 0, len(s.db.filters))
	for _, f := range s.db.filters {
		summaries = append(summaries, domain.FilterSummary{
			ID:        f.ID,
			Label:     f.Label,
			PackID:    f.PackID,
			PackTitle: s.db.packs[f.PackID].Title,
		})
	}

	slices.SortFunc(summaries, func(a, b domain.FilterSummary) int {
		return cmp.Or(
			cmp.Compare(a.PackTitle, b.PackTitle),
			cmp.Compare(a.Label, b.Label),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return summaries, nil
}

// UpsertTag implements store.FilterStore.
func (s *FilterStore) UpsertTag(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	f, ok := s.db.filters[filterID]
	if !ok {
		return store.ErrFilterNotFound
	}
	f.Tags = upsertTag(f.Tags, tag, exclude)
	f.UpdatedAt = time.Now().UTC()
	s.db.filters[filterID] = f
	return nil
}

// SetTagExclusion implements store.FilterStore.
func (s *FilterStore) SetTagExclusion(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	f, ok := s.db.filters[filterID]
	if !ok {
		return false, store.ErrFilterNotFound
	}
	if !f.SetExcluded(tag, exclude) {
		return false, nil
	}
	f.UpdatedAt = time.Now().UTC()
	s.db.filters[filterID] = f
	return true, nil
}

// RemoveTag implements store.FilterStore.
func (s *FilterStore) RemoveTag(ctx context.Context, filterID uuid.UUID, tag string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	f, ok := s.db.filters[filterID]
	if !ok {
		return false, store.ErrFilterNotFound
	}
	f = cloneFilter(f)
	if !f.RemoveTag(tag) {
		return false, nil
	}
	f.UpdatedAt = time.Now().UTC()
	s.db.filters[filterID] = f
	return true, nil
}

// Delete implements store.FilterStore. Dealer associations are removed with
// the filter, like the ON DELETE CASCADE of the SQL schema.
func (s *FilterStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.filters[id]; !ok {
		return store.ErrFilterNotFound
	}
	delete(s.db.filters, id)

	for _, rec := range s.db.dealers {
		if _, ok := rec.weights[id]; ok {
			delete(rec.weights, id)
			rec.order = slices.DeleteFunc(rec.order, func(fid uuid.UUID) bool { return fid == id })
		}
	}
	return nil
}

// upsertTag returns tags with the membership for tag set to exclude,
// appending a new membership when none exists.
func upsertTag(tags []domain.FilterTag, tag string, exclude bool) []domain.FilterTag {
	f := domain.Filter{Tags: tags}
	f.AddTag(tag, exclude)
	return f.Tags
}
