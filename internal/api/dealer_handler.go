package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/service"
)

// DealerHandler handles dealer authoring and two-stage dealing.
type DealerHandler struct {
	dealers service.DealerService
	logger  *slog.Logger
}

// NewDealerHandler creates a new DealerHandler.
func NewDealerHandler(dealers service.DealerService, logger *slog.Logger) *DealerHandler {
	if dealers == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("dealer service cannot be nil for DealerHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DealerHandler{
		dealers: dealers,
		logger:  logger.With(slog.String("component", "dealer_handler")),
	}
}

// CreateDealer handles POST /dealers.
func (h *DealerHandler) CreateDealer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req TitleRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	id, err := h.dealers.CreateDealer(r.Context(), req.Title)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create dealer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, IDResponse{ID: id})
}

// ListDealers handles GET /dealers.
func (h *DealerHandler) ListDealers(w http.ResponseWriter, r *http.Request) {
	dealers, err := h.dealers.ListDealers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list dealers")
		return
	}
	if dealers == nil {
		dealers = []domain.DealerSummary{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DealerListResponse{Dealers: dealers})
}

// GetDealer handles GET /dealers/{id}. The response includes the live
// filter associations with their weights.
func (h *DealerHandler) GetDealer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	dealer, err := h.dealers.GetDealer(r.Context(), dealerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get dealer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dealer)
}

// RenameDealer handles PATCH /dealers/{id}.
func (h *DealerHandler) RenameDealer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req TitleRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	if err := h.dealers.RenameDealer(r.Context(), dealerID, req.Title); err != nil {
		HandleAPIError(w, r, err, "Failed to rename dealer")
		return
	}

	shared.RespondNoContent(w)
}

// DeleteDealer handles DELETE /dealers/{id}.
func (h *DealerHandler) DeleteDealer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.dealers.DeleteDealer(r.Context(), dealerID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete dealer")
		return
	}

	shared.RespondNoContent(w)
}

// AddFilter handles PUT /dealers/{id}/filters/{filterID}. Re-adding a filter
// replaces its weight.
func (h *DealerHandler) AddFilter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	filterID, ok := pathUUID(w, r, "filterID", log)
	if !ok {
		return
	}
	var req DealerFilterRequest
	if !decodeRequest(w, r, &req, true, log) {
		return
	}

	weight := domain.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}

	if err := h.dealers.AddFilterToDealer(r.Context(), dealerID, filterID, weight); err != nil {
		HandleAPIError(w, r, err, "Failed to add filter to dealer")
		return
	}

	shared.RespondNoContent(w)
}

// SetWeight handles PATCH /dealers/{id}/filters/{filterID}.
func (h *DealerHandler) SetWeight(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	filterID, ok := pathUUID(w, r, "filterID", log)
	if !ok {
		return
	}
	var req SetWeightRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	if err := h.dealers.SetFilterWeight(r.Context(), dealerID, filterID, *req.Weight); err != nil {
		HandleAPIError(w, r, err, "Failed to set filter weight")
		return
	}

	shared.RespondNoContent(w)
}

// RemoveFilter handles DELETE /dealers/{id}/filters/{filterID}.
func (h *DealerHandler) RemoveFilter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	filterID, ok := pathUUID(w, r, "filterID", log)
	if !ok {
		return
	}

	if err := h.dealers.RemoveFilterFromDealer(r.Context(), dealerID, filterID); err != nil {
		HandleAPIError(w, r, err, "Failed to remove filter from dealer")
		return
	}

	shared.RespondNoContent(w)
}

// Deal handles POST /dealers/{id}/deal. A dealer without filters, or whose
// chosen filter matches nothing, answers 204.
func (h *DealerHandler) Deal(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cardID, found, err := h.dealers.DealCard(r.Context(), dealerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to deal card")
		return
	}
	if !found {
		log.Debug("dealer produced no card", slog.String("dealer_id", dealerID.String()))
		shared.RespondNoContent(w)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CardResponse{CardID: cardID})
}

// DealerQuery handles GET /dealers/{id}/query, exporting the dealer as a
// versioned query tree.
func (h *DealerHandler) DealerQuery(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dealerID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	tree, err := h.dealers.DealerQuery(r.Context(), dealerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export dealer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tree)
}
