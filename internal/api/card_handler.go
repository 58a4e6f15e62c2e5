package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/service"
)

// CardHandler handles pack imports and card tagging.
type CardHandler struct {
	cards  service.CardService
	logger *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards service.CardService, logger *slog.Logger) *CardHandler {
	if cards == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card service cannot be nil for CardHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CardHandler{
		cards:  cards,
		logger: logger.With(slog.String("component", "card_handler")),
	}
}

// ImportPack handles POST /packs. The pack is created if it does not exist
// and the cards are appended to it. A missing pack id is generated.
func (h *CardHandler) ImportPack(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ImportPackRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	cards := make([]domain.Card, 0, len(req.Cards))
	for _, c := range req.Cards {
		cards = append(cards, domain.Card{ID: c.ID, Front: c.Front, Back: c.Back, Tags: c.Tags})
	}

	pack := domain.Pack{ID: req.ID, Title: req.Title}
	if pack.ID == uuid.Nil {
		pack.ID = uuid.New()
	}
	if err := h.cards.ImportPack(r.Context(), pack, cards); err != nil {
		HandleAPIError(w, r, err, "Failed to import pack")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, IDResponse{ID: pack.ID})
}

// SetTags handles PUT /cards/{id}/tags.
func (h *CardHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req SetCardTagsRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	if err := h.cards.SetCardTags(r.Context(), cardID, req.Tags); err != nil {
		HandleAPIError(w, r, err, "Failed to set card tags")
		return
	}

	shared.RespondNoContent(w)
}
