package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/render"
)

// ErrorDetail is the machine-readable code and human-readable message of an error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// writeJSON encodes v with the given status. Encoding errors are dropped:
// the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status code and error body.
// what names the resource for not-found messages, e.g. "trip".
// Unrecognized errors are logged and reported as 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", what+" not found"))
	case errors.Is(err, render.ErrNoItinerary):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "trip has no itinerary"))
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", unwrapMessage(err, domain.ErrInvalidArgument)))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", unwrapMessage(err, domain.ErrValidation)))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", "you do not own this trip"))
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}

// unwrapMessage extracts the human-readable part after a wrapped sentinel.
// e.g. "service.TripService.Create: validation error: travelers must not be negative"
// → "travelers must not be negative"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}
