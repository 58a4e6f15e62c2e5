package memory

import (
	"context"
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// CardStore implements store.CardStore in memory.
type CardStore struct {
	db *DB
}

// Ensure CardStore implements store.CardStore
var _ store.CardStore = (*CardStore)(nil)

// NewCardStore creates a card store over db.
func NewCardStore(db *DB) *CardStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &CardStore{db: db}
}

// ShuffledCardIDs snapshots the matching ids and yields them in a fresh random order.
func (s *CardStore) ShuffledCardIDs(ctx context.Context, packID *uuid.UUID) iter.Seq2[uuid.UUID, error] {
	return func(yield func(uuid.UUID, error) bool) {
		s.db.mu.RLock()
		ids := make([]uuid.UUID, 0, len(s.db.cardOrder))
		for _, id := range s.db.cardOrder {
			if packID == nil || s.db.cards[id].PackID == *packID {
				ids = append(ids, id)
			}
		}
		s.db.mu.RUnlock()

		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

// CardTags returns a copy of the card's tags.
func (s *CardStore) CardTags(ctx context.Context, cardID uuid.UUID) ([]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	card, ok := s.db.cards[cardID]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return slices.Clone(card.Tags), nil
}

// GetPack implements store.CardStore.
func (s *CardStore) GetPack(ctx context.Context, id uuid.UUID) (*domain.Pack, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	pack, ok := s.db.packs[id]
	if !ok {
		return nil, store.ErrPackNotFound
	}
	return &pack, nil
}

// PackExists implements store.CardStore.
func (s *CardStore) PackExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	_, ok := s.db.packs[id]
	return ok, nil
}

// CreatePack implements store.CardStore.
func (s *CardStore) CreatePack(ctx context.Context, pack *domain.Pack) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.packs[pack.ID]; ok {
		return fmt.Errorf("%w: pack %s", store.ErrDuplicate, pack.ID)
	}
	s.db.packs[pack.ID] = *pack
	return nil
}

// CreateCard implements store.CardStore.
func (s *CardStore) CreateCard(ctx context.Context, card *domain.Card) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.packs[card.PackID]; !ok {
		return store.ErrPackNotFound
	}
	if _, ok := s.db.cards[card.ID]; ok {
		return fmt.Errorf("%w: card %s", store.ErrDuplicate, card.ID)
	}

	stored := *card
	stored.Tags = distinct(card.Tags)
	s.db.cards[card.ID] = stored
	s.db.cardOrder = append(s.db.cardOrder, card.ID)
	return nil
}

// SetCardTags implements store.CardStore.
func (s *CardStore) SetCardTags(ctx context.Context, cardID uuid.UUID, tags []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	card, ok := s.db.cards[cardID]
	if !ok {
		return store.ErrCardNotFound
	}
	card.Tags = distinct(tags)
	s.db.cards[cardID] = card
	return nil
}

// distinct mirrors the (card_id, tag) primary key of the SQL stores.
func distinct(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
