package http

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sagarc03/depot"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the error response matching the kind of err.
//
// Client errors carry the error text; server errors are logged and answered
// with a generic message so that filesystem paths do not leak.
func HandleError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds the size limit")
	case errors.Is(err, depot.ErrUnprovidedAuthorization):
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, depot.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, depot.ErrInvalidProject):
		WriteError(w, http.StatusBadRequest, "invalid_project", err.Error())
	case errors.Is(err, depot.ErrInvalidVersion):
		WriteError(w, http.StatusBadRequest, "invalid_version", err.Error())
	case errors.Is(err, depot.ErrInvalidFile):
		WriteError(w, http.StatusBadRequest, "invalid_file", err.Error())
	case errors.Is(err, depot.ErrMalformedRequest):
		WriteError(w, http.StatusBadRequest, "malformed_request", err.Error())
	case errors.Is(err, depot.ErrVersionAlreadyExists):
		WriteError(w, http.StatusConflict, "version_exists", err.Error())
	case errors.Is(err, depot.ErrNotFound), errors.Is(err, depot.ErrIO) && errors.Is(err, fs.ErrNotExist):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Project or version not found")
	case errors.Is(err, depot.ErrCorruptedVersion):
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "corrupted_version", "Corrupted storage for version")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
