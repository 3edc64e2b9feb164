package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/printshop/internal/auth"
	"github.com/fjod/printshop/internal/checkout"
	"github.com/fjod/printshop/internal/customize"
	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps service errors to HTTP responses. Unexpected errors are logged and
// hidden behind a generic message.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs domain.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: fieldErrs,
		})
	case errors.Is(err, customize.ErrNothingToPrint), errors.Is(err, customize.ErrNotCustomizable):
		respondError(w, http.StatusBadRequest, "invalid_customization", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, auth.ErrMissingEmail):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusServiceUnavailable, "cancelled", "request cancelled")
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondProductNotFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, "not_found", "product not found")
}
