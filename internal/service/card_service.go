package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/events"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// CardService loads packs and cards into the card store. Pack and card
// authoring happen elsewhere; this is the import path used to populate a
// fresh database.
type CardService interface {
	// ImportPack creates the pack if it does not exist yet, then adds the cards.
	ImportPack(ctx context.Context, pack domain.Pack, cards []domain.Card) error

	// SetCardTags replaces the tags of a card.
	SetCardTags(ctx context.Context, cardID uuid.UUID, tags []string) error
}

type cardServiceImpl struct {
	cards   store.CardStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewCardService creates a new CardService.
// If emitter is nil, events are discarded.
func NewCardService(cards store.CardStore, emitter events.EventEmitter, logger *slog.Logger) (CardService, error) {
	if cards == nil {
		return nil, nilDependency("cardStore")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardServiceImpl{
		cards:   cards,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "card_service")),
	}, nil
}

func cardError(operation, message string, err error) error {
	return NewServiceError("card", operation, message, err)
}

// ImportPack implements CardService.ImportPack.
func (s *cardServiceImpl) ImportPack(ctx context.Context, pack domain.Pack, cards []domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if pack.ID == uuid.Nil {
		return domain.NewValidationError("pack_id", "cannot be empty", domain.ErrInvalidID)
	}
	if strings.TrimSpace(pack.Title) == "" {
		return domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyLabel)
	}
	for _, card := range cards {
		for _, tag := range card.Tags {
			if err := domain.ValidateTag(tag); err != nil {
				return err
			}
		}
	}

	exists, err := s.cards.PackExists(ctx, pack.ID)
	if err != nil {
		return cardError("import_pack", "failed to check pack", err)
	}
	if !exists {
		if err := s.cards.CreatePack(ctx, &pack); err != nil {
			return cardError("import_pack", "failed to create pack", err)
		}
	}

	for i := range cards {
		card := cards[i]
		card.PackID = pack.ID
		if card.ID == uuid.Nil {
			card.ID = uuid.New()
		}
		if err := s.cards.CreateCard(ctx, &card); err != nil {
			return cardError("import_pack", "failed to create card", err)
		}
	}

	log.Info("pack imported",
		slog.String("pack_id", pack.ID.String()),
		slog.Int("card_count", len(cards)))
	s.emit(ctx, pack.ID)
	return nil
}

// SetCardTags implements CardService.SetCardTags.
func (s *cardServiceImpl) SetCardTags(ctx context.Context, cardID uuid.UUID, tags []string) error {
	for _, tag := range tags {
		if err := domain.ValidateTag(tag); err != nil {
			return err
		}
	}
	if err := s.cards.SetCardTags(ctx, cardID, tags); err != nil {
		return cardError("set_card_tags", "failed to set tags", err)
	}
	s.emit(ctx, cardID)
	return nil
}

func (s *cardServiceImpl) emit(ctx context.Context, entityID uuid.UUID) {
	if err := s.emitter.EmitEvent(ctx, events.NewMutationEvent(events.CardsChanged, entityID)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit mutation event",
			slog.String("event_type", events.CardsChanged),
			slog.String("error", err.Error()))
	}
}
