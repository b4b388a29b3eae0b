package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, h.logger, err, "Failed to fetch posts")
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"message": "post not found with id 42"}
//
// Clients only ever read "message" and the status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/faceless/internal/apperror"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be written BEFORE the body. Once Encode calls
// w.Write, the headers are on the wire and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation   → 400
//	apperror.ErrUnauthorized → 401
//	apperror.ErrNotFound     → 404
//	apperror.ErrConflict     → 409
//	anything else            → 500 with the route's fallback message
//
// errors.Is walks the whole chain, so an apperror wrapped by the service
// with fmt.Errorf("...: %w", err) still maps correctly.
//
// Unclassified errors are logged with the request path and never returned:
// their text can contain SQL or file paths.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}
		if status != http.StatusInternalServerError {
			writeMessage(w, status, appErr.Message)
			return
		}
	}

	logger.Error(fallback,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeMessage(w, http.StatusInternalServerError, fallback)
}
