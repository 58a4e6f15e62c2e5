package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
)

// CardStore is the read side of pack and card persistence the engine depends on,
// plus the minimal writes used to load packs.
type CardStore interface {
	// ShuffledCardIDs and CardTags make every CardStore a selection.CardSource.
	// SQL implementations read the candidate ids up front (see ScanIDs), so a
	// selection holds at most one connection at a time.
	selection.CardSource

	// GetPack retrieves a pack by id.
	// Returns ErrPackNotFound if the pack does not exist.
	GetPack(ctx context.Context, id uuid.UUID) (*domain.Pack, error)

	// PackExists reports whether a pack with the given id exists.
	PackExists(ctx context.Context, id uuid.UUID) (bool, error)

	// CreatePack saves a new pack.
	// Returns ErrDuplicate if a pack with the same id exists.
	CreatePack(ctx context.Context, pack *domain.Pack) error

	// CreateCard saves a new card together with its tags.
	// Returns ErrPackNotFound if the owning pack does not exist.
	CreateCard(ctx context.Context, card *domain.Card) error

	// SetCardTags replaces the tag set of a card.
	// Returns ErrCardNotFound if the card does not exist.
	SetCardTags(ctx context.Context, cardID uuid.UUID, tags []string) error
}
