package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// QueryStore implements store.QueryStore in memory. Trees are shared, not
// copied; callers treat query nodes as immutable values.
type QueryStore struct {
	db *DB
}

// Ensure QueryStore implements store.QueryStore
var _ store.QueryStore = (*QueryStore)(nil)

// NewQueryStore creates a saved query store over db.
func NewQueryStore(db *DB) *QueryStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &QueryStore{db: db}
}

// Create implements store.QueryStore.
func (s *QueryStore) Create(ctx context.Context, query *domain.SavedQuery) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.queries[query.ID]; ok {
		return fmt.Errorf("%w: saved query %s", store.ErrDuplicate, query.ID)
	}
	s.db.queries[query.ID] = *query
	return nil
}

// GetByID implements store.QueryStore.
func (s *QueryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedQuery, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	q, ok := s.db.queries[id]
	if !ok {
		return nil, store.ErrQueryNotFound
	}
	return &q, nil
}

// List implements store.QueryStore.
func (s *QueryStore) List(ctx context.Context) ([]domain.SavedQuery, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]domain.SavedQuery, 0, len(s.db.queries))
	for _, q := range s.db.queries {
		out = append(out, q)
	}
	slices.SortFunc(out, func(a, b domain.SavedQuery) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return out, nil
}

// Delete implements store.QueryStore.
func (s *QueryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.queries[id]; !ok {
		return store.ErrQueryNotFound
	}
	delete(s.db.queries, id)
	return nil
}
