package memory

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
)

type dealerRecord struct {
	dealer  domain.Dealer
	weights map[uuid.UUID]int
	order   []uuid.UUID
}

// DB is the shared state behind the memory stores. The zero value is not
// usable; create one with NewDB.
type DB struct {
	mu sync.RWMutex

	packs     map[uuid.UUID]domain.Pack
	cards     map[uuid.UUID]domain.Card
	cardOrder []uuid.UUID

	filters map[uuid.UUID]domain.Filter
	dealers map[uuid.UUID]*dealerRecord
	studies map[uuid.UUID]domain.Study
	queries map[uuid.UUID]domain.SavedQuery
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{
		packs:   make(map[uuid.UUID]domain.Pack),
		cards:   make(map[uuid.UUID]domain.Card),
		filters: make(map[uuid.UUID]domain.Filter),
		dealers: make(map[uuid.UUID]*dealerRecord),
		studies: make(map[uuid.UUID]domain.Study),
		queries: make(map[uuid.UUID]domain.SavedQuery),
	}
}

func cloneFilter(f domain.Filter) domain.Filter {
	f.Tags = cloneTags(f.Tags)
	return f
}

func cloneTags(tags []domain.FilterTag) []domain.FilterTag {
	if tags == nil {
		return []domain.FilterTag{}
	}
	return slices.Clone(tags)
}

func cloneStudy(s domain.Study) domain.Study {
	s.Tags = cloneTags(s.Tags)
	if s.PackID != nil {
		id := *s.PackID
		s.PackID = &id
	}
	return s
}
