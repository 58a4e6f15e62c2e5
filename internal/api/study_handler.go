package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/service"
)

// StudyHandler handles studies: saved bulk queries drawn a fixed number of
// cards at a time.
type StudyHandler struct {
	studies service.StudyService
	logger  *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studies service.StudyService, logger *slog.Logger) *StudyHandler {
	if studies == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("study service cannot be nil for StudyHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StudyHandler{
		studies: studies,
		logger:  logger.With(slog.String("component", "study_handler")),
	}
}

// CreateStudy handles POST /studies.
func (h *StudyHandler) CreateStudy(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateStudyRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	limit := domain.DefaultStudyLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	id, err := h.studies.CreateStudy(r.Context(), req.Title, req.PackID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create study")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, IDResponse{ID: id})
}

// ListStudies handles GET /studies.
func (h *StudyHandler) ListStudies(w http.ResponseWriter, r *http.Request) {
	studies, err := h.studies.ListStudies(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list studies")
		return
	}
	if studies == nil {
		studies = []domain.Study{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StudyListResponse{Studies: studies})
}

// GetStudy handles GET /studies/{id}.
func (h *StudyHandler) GetStudy(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studyID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	study, err := h.studies.GetStudy(r.Context(), studyID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get study")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, study)
}

// UpdateStudy handles PATCH /studies/{id}. Each present field is applied
// in turn; the first failure stops the update.
func (h *StudyHandler) UpdateStudy(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studyID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var req UpdateStudyRequest
	if !decodeRequest(w, r, &req, false, log) {
		return
	}

	ctx := r.Context()
	if req.Title != nil {
		if err := h.studies.RenameStudy(ctx, studyID, *req.Title); err != nil {
			HandleAPIError(w, r, err, "Failed to rename study")
			return
		}
	}
	if req.PackID != nil || req.AllPacks {
		if err := h.studies.SetStudyPack(ctx, studyID, req.PackID); err != nil {
			HandleAPIError(w, r, err, "Failed to set study pack")
			return
		}
	}
	if req.Limit != nil {
		if err := h.studies.SetStudyLimit(ctx, studyID, *req.Limit); err != nil {
			HandleAPIError(w, r, err, "Failed to set study limit")
			return
		}
	}

	study, err := h.studies.GetStudy(ctx, studyID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get study")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, study)
}

// DeleteStudy handles DELETE /studies/{id}.
func (h *StudyHandler) DeleteStudy(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studyID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.studies.DeleteStudy(r.Context(), studyID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete study")
		return
	}

	shared.RespondNoContent(w)
}

// AddTag handles PUT /studies/{id}/tags/{tag}.
func (h *StudyHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studyID, ok := pathUUID(w, r, "id", log)
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

	if err := h.studies.AddStudyTag(r.Context(), studyID, tag, req.Exclude); err != nil {
		HandleAPIError(w, r, err, "Failed to add tag")
		return
	}

	shared.RespondNoContent(w)
}

// RemoveTag handles DELETE /studies/{id}/tags/{tag}.
func (h *StudyHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studyID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	tag, ok := pathTag(w, r, log)
	if !ok {
		return
	}

	if err := h.studies.RemoveStudyTag(r.Context(), studyID, tag); err != nil {
		HandleAPIError(w, r, err, "Failed to remove tag")
		return
	}

	shared.RespondNoContent(w)
}

// Draw handles POST /studies/{id}/draw, returning up to the study's limit
// of matching cards in random order.
func (h *StudyHandler) Draw(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	studyID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	ids, err := h.studies.DrawStudy(r.Context(), studyID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to draw study")
		return
	}

	respondCards(w, r, ids)
}
