package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"lexora-backend/internal/mastery"
	"lexora-backend/internal/middleware"
	"lexora-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(r),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

// handleEngineError maps engine and storage errors onto the error envelope.
func handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, mastery.ErrInvalidBatchSize):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"size": "must be a positive integer"}, r))
	case errors.Is(err, mastery.ErrInvalidOutcome):
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_OUTCOME", err.Error(), r))
	case errors.Is(err, mastery.ErrUnknownItem):
		writeJSON(w, http.StatusNotFound, errorResp("UNKNOWN_ITEM", "Word not found", r))
	case errors.Is(err, mastery.ErrConcurrentUpdate):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Concurrent update, please retry", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
