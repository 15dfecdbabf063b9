package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/zettel/pkg/api"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP
// status code. Transport-level errors (body too large, unsupported
// content type, method not allowed) are handled separately by the HTTP
// adapter.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response using the
// ErrorResponse wrapper format from pkg/api. It sets the Content-Type
// header and writes the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the HTTP status
// code from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteError writes any handler error. Errors carrying an *api.APIError
// keep their type and status; everything else is logged and surfaces as
// an opaque server error.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unhandled handler error", "error", err)
		apiErr = api.NewServerError("internal server error")
	}
	WriteAPIError(w, apiErr)
}
