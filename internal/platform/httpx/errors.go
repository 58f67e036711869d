// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
)

// Sentinel errors for handlers.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps handler and upstream errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, apiclient.ErrAuthExpired):
		Problem(w, http.StatusUnauthorized, "Unauthorized", apiclient.Message(err))
	case errors.Is(err, apiclient.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", apiclient.Message(err))
	case errors.Is(err, apiclient.ErrBusiness):
		Problem(w, http.StatusUnprocessableEntity, "Request Rejected", apiclient.Message(err))
	case errors.Is(err, apiclient.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusBadGateway, "Upstream Unavailable", apiclient.Message(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
