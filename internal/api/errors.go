// Package api exposes the room search engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/capstone-maru/maru/internal/filter"
	"github.com/capstone-maru/maru/internal/middleware"
	"github.com/capstone-maru/maru/internal/search"
)

// Error codes returned in the error envelope.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeAuthFailed       = "auth_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)

// ErrorResponse is the envelope of every error:
// {"error": {"code": "...", "message": "...", "field": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code. Field names the offending
// query parameter for validation errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes the error envelope and records code for the request log.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	writeErrorDetail(w, ctx, status, ErrorDetail{Code: code, Message: message})
}

func writeErrorDetail(w http.ResponseWriter, ctx context.Context, status int, detail ErrorDetail) {
	middleware.SetErrorCode(ctx, detail.Code)
	writeJSON(w, ctx, status, ErrorResponse{Error: detail})
}

func writeJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// writeSearchError maps engine errors onto statuses. Collaborator failures
// are logged with their cause and reported without it.
func writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var ve *filter.ValidationError
	switch {
	case errors.As(err, &ve):
		writeErrorDetail(w, ctx, http.StatusBadRequest, ErrorDetail{
			Code:    ErrCodeValidation,
			Message: ve.Reason,
			Field:   ve.Field,
		})
	case errors.Is(err, search.ErrInvalidQuery):
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, search.ErrUnknownRequester):
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Requester is not a registered member")
	case errors.Is(err, search.ErrListingNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Room not found")
	default:
		slog.ErrorContext(ctx, "search request failed", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}
