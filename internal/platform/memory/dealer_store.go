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

// DealerStore implements store.DealerStore in memory.
type DealerStore struct {
	db *DB
}

// Ensure DealerStore implements store.DealerStore
var _ store.DealerStore = (*DealerStore)(nil)

// NewDealerStore creates a dealer store over db.
func NewDealerStore(db *DB) *DealerStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &DealerStore{db: db}
}

// Create implements store.DealerStore.
func (s *DealerStore) Create(ctx context.Context, dealer *domain.Dealer) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.dealers[dealer.ID]; ok {
		return fmt.Errorf("%w: dealer %s", store.ErrDuplicate, dealer.ID)
	}

	rec := &dealerRecord{
		dealer:  *dealer,
		weights: make(map[uuid.UUID]int, len(dealer.Filters)),
	}
	rec.dealer.Filters = nil
	for _, f := range dealer.Filters {
		if _, ok := s.db.filters[f.FilterID]; !ok {
			return store.ErrFilterNotFound
		}
		if f.Weight <= 0 {
			return fmt.Errorf("%w: weight %d", store.ErrInvalidEntity, f.Weight)
		}
		if _, seen := rec.weights[f.FilterID]; !seen {
			rec.order = append(rec.order, f.FilterID)
		}
		rec.weights[f.FilterID] = f.Weight
	}
	s.db.dealers[dealer.ID] = rec
	return nil
}

// GetByID implements store.DealerStore.
func (s *DealerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dealer, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rec, ok := s.db.dealers[id]
	if !ok {
		return nil, store.ErrDealerNotFound
	}
	d := rec.dealer
	d.Filters = s.joinFilters(rec)
	return &d, nil
}

// List implements store.DealerStore.
func (s *DealerStore) List(ctx context.Context) ([]domain.DealerSummary, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	summaries := make([]domain.DealerSummary, 0, len(s.db.dealers))
	for _, rec := range s.db.dealers {
		summaries = append(summaries, domain.DealerSummary{ID: rec.dealer.ID, Title: rec.dealer.Title})
	}
	slices.SortFunc(summaries, func(a, b domain.DealerSummary) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return summaries, nil
}

// Rename implements store.DealerStore.
func (s *DealerStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rec, ok := s.db.dealers[id]
	if !ok {
		return store.ErrDealerNotFound
	}
	rec.dealer.Title = title
	rec.dealer.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete implements store.DealerStore.
func (s *DealerStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.dealers[id]; !ok {
		return store.ErrDealerNotFound
	}
	delete(s.db.dealers, id)
	return nil
}

// AddFilter implements store.DealerStore.
func (s *DealerStore) AddFilter(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rec, ok := s.db.dealers[dealerID]
	if !ok {
		return store.ErrDealerNotFound
	}
	if _, ok := s.db.filters[filterID]; !ok {
		return store.ErrFilterNotFound
	}
	if weight <= 0 {
		return fmt.Errorf("%w: weight %d", store.ErrInvalidEntity, weight)
	}

	if _, exists := rec.weights[filterID]; !exists {
		rec.order = append(rec.order, filterID)
	}
	rec.weights[filterID] = weight
	return nil
}

// RemoveFilter implements store.DealerStore.
func (s *DealerStore) RemoveFilter(ctx context.Context, dealerID, filterID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rec, ok := s.db.dealers[dealerID]
	if !ok {
		return store.ErrDealerNotFound
	}
	if _, exists := rec.weights[filterID]; exists {
		delete(rec.weights, filterID)
		rec.order = slices.DeleteFunc(rec.order, func(id uuid.UUID) bool { return id == filterID })
	}
	return nil
}

// SetWeight implements store.DealerStore.
func (s *DealerStore) SetWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rec, ok := s.db.dealers[dealerID]
	if !ok {
		return store.ErrDealerNotFound
	}
	if _, exists := rec.weights[filterID]; !exists {
		return store.ErrDealerFilterNotFound
	}
	if weight <= 0 {
		return fmt.Errorf("%w: weight %d", store.ErrInvalidEntity, weight)
	}
	rec.weights[filterID] = weight
	return nil
}

// ListFilters implements store.DealerStore.
func (s *DealerStore) ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rec, ok := s.db.dealers[dealerID]
	if !ok {
		return nil, store.ErrDealerNotFound
	}
	return s.joinFilters(rec), nil
}

// joinFilters resolves associations against the filter table, skipping any
// whose filter is gone. Callers must hold the read lock.
func (s *DealerStore) joinFilters(rec *dealerRecord) []domain.DealerFilter {
	out := make([]domain.DealerFilter, 0, len(rec.order))
	for _, fid := range rec.order {
		f, ok := s.db.filters[fid]
		if !ok {
			continue
		}
		out = append(out, domain.DealerFilter{
			FilterID:  fid,
			Label:     f.Label,
			PackID:    f.PackID,
			PackTitle: s.db.packs[f.PackID].Title,
			Weight:    rec.weights[fid],
		})
	}
	return out
}
