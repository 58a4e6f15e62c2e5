package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/service"
)

// QueryHandler handles ad-hoc card queries and saved query trees.
type QueryHandler struct {
	queries service.QueryService
	logger  *slog.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queries service.QueryService, logger *slog.Logger) *QueryHandler {
	if queries == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("query service cannot be nil for QueryHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryHandler{
		queries: queries,
		logger:  logger.With(slog.String("component", "query_handler")),
	}
}

// QueryCards handles POST /cards/query.
func (h *QueryHandler) QueryCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CardQueryRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	ids, err := h.queries.QueryCards(r.Context(), service.CardQuery{
		PackID:   req.PackID,
		Included: req.IncludedTags,
		Excluded: req.ExcludedTags,
		Limit:    req.Limit,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to query cards")
		return
	}

	respondCards(w, r, ids)
}

// SaveQuery handles POST /queries.
func (h *QueryHandler) SaveQuery(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SaveQueryRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}
	if req.Query.Query == nil {
		HandleAPIError(w, r, domain.NewValidationError("query", "is required", selection.ErrInvalidQuery), "")
		return
	}

	id, err := h.queries.SaveQuery(r.Context(), req.Title, req.Query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save query")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, IDResponse{ID: id})
}

// ListQueries handles GET /queries.
func (h *QueryHandler) ListQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.queries.ListQueries(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list queries")
		return
	}
	if queries == nil {
		queries = []domain.SavedQuery{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QueryListResponse{Queries: queries})
}

// GetQuery handles GET /queries/{id}.
func (h *QueryHandler) GetQuery(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	queryID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	q, err := h.queries.GetQuery(r.Context(), queryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get query")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, q)
}

// DeleteQuery handles DELETE /queries/{id}.
func (h *QueryHandler) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	queryID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.queries.DeleteQuery(r.Context(), queryID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete query")
		return
	}

	shared.RespondNoContent(w)
}

// DrawQuery handles POST /queries/{id}/deal.
func (h *QueryHandler) DrawQuery(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	queryID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cardID, found, err := h.queries.DrawQuery(r.Context(), queryID)
	respondDraw(w, r, cardID, found, err)
}

// DrawTree handles POST /queries/draw with an unsaved versioned tree as the body.
func (h *QueryHandler) DrawTree(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var tree selection.Versioned
	if !decodeRequest(w, r, &tree, false, log) {
		return
	}

	cardID, found, err := h.queries.DrawTree(r.Context(), tree)
	respondDraw(w, r, cardID, found, err)
}

func respondDraw(w http.ResponseWriter, r *http.Request, cardID uuid.UUID, found bool, err error) {
	if err != nil {
		HandleAPIError(w, r, err, "Failed to draw card")
		return
	}
	if !found {
		shared.RespondNoContent(w)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CardResponse{CardID: cardID})
}

func respondCards(w http.ResponseWriter, r *http.Request, ids []uuid.UUID) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CardsResponse{CardIDs: ids})
}
