package selection

import (
	"context"
	"iter"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// fakeSource is a CardSource backed by maps. It counts enumeration steps and
// tag fetches so tests can assert on laziness.
type fakeSource struct {
	mu sync.Mutex

	order   []uuid.UUID
	packOf  map[uuid.UUID]uuid.UUID
	tags    map[uuid.UUID][]string
	rng     *rand.Rand
	repeats bool

	enumErr error
	tagErr  error

	steps      int
	tagFetches int
}

func newFakeSource(seed uint64) *fakeSource {
	return &fakeSource{
		packOf: make(map[uuid.UUID]uuid.UUID),
		tags:   make(map[uuid.UUID][]string),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *fakeSource) addCard(packID uuid.UUID, tags ...string) uuid.UUID {
	id := uuid.New()
	s.order = append(s.order, id)
	s.packOf[id] = packID
	s.tags[id] = tags
	return id
}

func (s *fakeSource) ShuffledCardIDs(ctx context.Context, packID *uuid.UUID) iter.Seq2[uuid.UUID, error] {
	return func(yield func(uuid.UUID, error) bool) {
		if s.enumErr != nil {
			yield(uuid.Nil, s.enumErr)
			return
		}

		s.mu.Lock()
		ids := make([]uuid.UUID, 0, len(s.order))
		for _, id := range s.order {
			if packID == nil || s.packOf[id] == *packID {
				ids = append(ids, id)
			}
		}
		s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		if s.repeats {
			ids = append(ids, ids...)
		}
		s.mu.Unlock()

		for _, id := range ids {
			s.mu.Lock()
			s.steps++
			s.mu.Unlock()
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (s *fakeSource) CardTags(ctx context.Context, cardID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagFetches++
	if s.tagErr != nil {
		return nil, s.tagErr
	}
	return s.tags[cardID], nil
}

// scenarioPack builds pack P = {c1: {math}, c2: {math, hard}, c3: {}}.
func scenarioPack(seed uint64) (src *fakeSource, pack, c1, c2, c3 uuid.UUID) {
	src = newFakeSource(seed)
	pack = uuid.New()
	c1 = src.addCard(pack, "math")
	c2 = src.addCard(pack, "math", "hard")
	c3 = src.addCard(pack)
	// a card in another pack that must never leak into pack-scoped results
	src.addCard(uuid.New(), "math")
	return src, pack, c1, c2, c3
}
