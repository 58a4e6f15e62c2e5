package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/service"
)

// FilterHandler handles filter authoring and single-filter dealing.
type FilterHandler struct {
	filters service.FilterService
	logger  *slog.Logger
}

// NewFilterHandler creates a new FilterHandler.
func NewFilterHandler(filters service.FilterService, logger *slog.Logger) *FilterHandler {
	if filters == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("filter service cannot be nil for FilterHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FilterHandler{
		filters: filters,
		logger:  logger.With(slog.String("component", "filter_handler")),
	}
}

// CreateFilter handles POST /filters.
func (h *FilterHandler) CreateFilter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateFilterRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	id, err := h.filters.CreateFilter(r.Context(), req.PackID, req.Label)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create filter")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, IDResponse{ID: id})
}

// ListFilters handles GET /filters. Filters are grouped by pack, packs
// ordered by title and filters by label.
func (h *FilterHandler) ListFilters(w http.ResponseWriter, r *http.Request) {
	listings, err := h.filters.ListFilters(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list filters")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, FilterGroupsResponse{Packs: domain.GroupByPack(listings)})
}

// GetFilter handles GET /filters/{id}.
func (h *FilterHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filterID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	detail, err := h.filters.GetFilter(r.Context(), filterID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get filter")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// DeleteFilter handles DELETE /filters/{id}.
func (h *FilterHandler) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filterID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.filters.DeleteFilter(r.Context(), filterID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete filter")
		return
	}

	shared.RespondNoContent(w)
}

// AddTag handles PUT /filters/{id}/tags/{tag}. The membership is upserted.
func (h *FilterHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filterID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	tag, ok := pathTag(w, r, log)
	if !ok {
		return
	}
	var req TagRoleRequest
	if !decodeRequest(w, r, &req, true, log) {
		return
	}

	if err := h.filters.AddFilterTag(r.Context(), filterID, tag, req.Exclude); err != nil {
		HandleAPIError(w, r, err, "Failed to add tag")
		return
	}

	shared.RespondNoContent(w)
}

// SetTagExclusion handles PATCH /filters/{id}/tags/{tag}. A tag the filter
// does not have is left absent.
func (h *FilterHandler) SetTagExclusion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filterID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	tag, ok := pathTag(w, r, log)
	if !ok {
		return
	}
	var req TagRoleRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	if err := h.filters.SetFilterExclusion(r.Context(), filterID, tag, req.Exclude); err != nil {
		HandleAPIError(w, r, err, "Failed to update tag")
		return
	}

	shared.RespondNoContent(w)
}

// RemoveTag handles DELETE /filters/{id}/tags/{tag}.
func (h *FilterHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filterID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	tag, ok := pathTag(w, r, log)
	if !ok {
		return
	}

	if err := h.filters.RemoveFilterTag(r.Context(), filterID, tag); err != nil {
		HandleAPIError(w, r, err, "Failed to remove tag")
		return
	}

	shared.RespondNoContent(w)
}

// NextCard handles GET /filters/{id}/card. A filter that matches nothing
// answers 204.
func (h *FilterHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filterID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cardID, found, err := h.filters.NextCard(r.Context(), filterID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to select card")
		return
	}
	if !found {
		log.Debug("filter matched no cards", slog.String("filter_id", filterID.String()))
		shared.RespondNoContent(w)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CardResponse{CardID: cardID})
}
