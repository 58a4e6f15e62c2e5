package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-dealer/internal/api/shared"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// errMalformedBody marks a request body that could not be decoded.
var errMalformedBody = errors.New("malformed request body")

// MapErrorToStatusCode maps domain, selection and store errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, errMalformedBody),
		errors.As(err, &verrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, selection.ErrInvalidQuery),
		errors.Is(err, selection.ErrUnsupportedVersion):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, selection.ErrUnsupportedVersion):
		return "Unsupported query format version"

	case errors.Is(err, selection.ErrInvalidQuery):
		return "Invalid query"

	case errors.Is(err, errMalformedBody):
		return "Invalid request format"

	case errors.As(err, &verrs):
		return SanitizeValidationError(err)

	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)

	case errors.Is(err, store.ErrPackNotFound):
		return "Pack not found"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrFilterNotFound):
		return "Filter not found"

	case errors.Is(err, store.ErrDealerFilterNotFound):
		return "Filter is not part of this dealer"

	case errors.Is(err, store.ErrDealerNotFound):
		return "Dealer not found"

	case errors.Is(err, store.ErrStudyNotFound):
		return "Study not found"

	case errors.Is(err, store.ErrQueryNotFound):
		return "Query not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Entity already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator field errors into a short message
// naming the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gt", "gte":
		return "too small"
	case "max", "lt", "lte":
		return "too large"
	case "uuid":
		return "invalid identifier"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallbackMsg replaces the generic message of unexpected (5xx) errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && strings.TrimSpace(fallbackMsg) != "" {
		message = fallbackMsg
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
