package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
)

// getPathUUID extracts and parses a UUID from a URL path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// getPathTag extracts the {tag} path parameter. chi routes on the raw path
// when one is present, in which case the segment is still escaped.
func getPathTag(r *http.Request) (string, error) {
	tag := chi.URLParam(r, "tag")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(tag)
		if err != nil {
			return "", domain.NewValidationError("tag", "has invalid encoding", domain.ErrValidation)
		}
		tag = unescaped
	}
	if err := domain.ValidateTag(tag); err != nil {
		return "", err
	}
	return tag, nil
}

// pathUUID writes a 400 response and reports false when the parameter is
// missing or malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, paramName string, log *slog.Logger) (uuid.UUID, bool) {
	id, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName,
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	return id, true
}

// pathTag writes a 400 response and reports false when the tag is blank.
func pathTag(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	tag, err := getPathTag(r)
	if err != nil {
		log.Warn("invalid tag", slog.String("value", chi.URLParam(r, "tag")))
		HandleAPIError(w, r, err, "")
		return "", false
	}
	return tag, true
}

// decodeRequest decodes and validates the body into req. On failure it
// writes a 400 response and reports false.
func decodeRequest(w http.ResponseWriter, r *http.Request, req interface{}, optional bool, log *slog.Logger) bool {
	decode := shared.DecodeJSON
	if optional {
		decode = shared.DecodeOptionalJSON
	}

	if err := decode(r, req); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		HandleAPIError(w, r, fmt.Errorf("%w: %w", errMalformedBody, err), "")
		return false
	}

	if err := shared.ValidateRequest(req); err != nil {
		log.Warn("validation error", slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "")
		return false
	}

	return true
}
