// Package handlers contains the HTTP surface of ivv-engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse maps a service error to its HTTP status and writes it.
// Client-caused errors carry their own message; upstream and unrecognized
// failures get a fixed generic message with the cause logged server-side,
// so provider endpoints and network detail never reach callers.
func ErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, apperrors.ErrAuthRequired):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, apperrors.ErrExtraction):
		logger.Warn("Document extraction failed", zap.Error(err))
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Error:   "extraction_failed",
			Message: "Could not extract text from the document",
		})
		return
	case errors.Is(err, apperrors.ErrExternalDependency):
		logger.Error("Upstream dependency failed", zap.Error(err))
		WriteJSON(w, http.StatusBadGateway, ErrorBody{
			Error:   "upstream_unavailable",
			Message: "The operation failed, please try again",
		})
		return
	default:
		logger.Error("Unhandled error", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{
			Error:   "internal",
			Message: "An internal error occurred",
		})
		return
	}

	WriteJSON(w, status, ErrorBody{Error: code, Message: err.Error()})
}

// DecodeJSON decodes a request body into v with a size cap.
func DecodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.ErrValidation
	}
	return nil
}
