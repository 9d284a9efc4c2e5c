package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lexora-backend/internal/logger"
	"lexora-backend/internal/mastery"
	"lexora-backend/internal/middleware"
	"lexora-backend/internal/models"
	"lexora-backend/internal/services"
)

const (
	maxSubmitResults = 100
	// maxSubmitBodyBytes fits maxSubmitResults outcomes with room to spare.
	maxSubmitBodyBytes = 64 << 10

	maxWordPageSize = 500
)

type vocabularyService interface {
	NextBatch(ctx context.Context, userID uuid.UUID, size int) (*models.Batch, error)
	Submit(ctx context.Context, userID uuid.UUID, results []models.OutcomeRequest) ([]models.SubmitAck, error)
	Progress(ctx context.Context, userID, wordID uuid.UUID) (*models.WordProgress, error)
	Stats(ctx context.Context, userID uuid.UUID) (*models.LearnerStats, error)
	Export(ctx context.Context, userID uuid.UUID) ([]models.ExportRow, error)
	Quiz(ctx context.Context, wordID uuid.UUID) (*models.Quiz, error)
	ListWords(ctx context.Context, limit, offset int, all bool) (*models.WordList, error)
}

type VocabularyHandler struct {
	vocab vocabularyService
	log   *logger.Logger
}

func NewVocabularyHandler(vocab vocabularyService, log *logger.Logger) *VocabularyHandler {
	return &VocabularyHandler{vocab: vocab, log: log.With("handler", "VocabularyHandler")}
}

func (h *VocabularyHandler) NextBatch(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"size": "must be a positive integer"}, r))
			return
		}
		size = n
	}

	batch, err := h.vocab.NextBatch(r.Context(), middleware.GetUserID(r.Context()), size)
	if err != nil {
		h.log.Error("failed to compose batch", "error", err, "request_id", middleware.GetRequestID(r))
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *VocabularyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxSubmitBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body exceeds 64KB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes)

	var req models.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body exceeds 64KB limit", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.Results) == 0 || len(req.Results) > maxSubmitResults {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"results": fmt.Sprintf("must contain between 1 and %d results", maxSubmitResults)}, r))
		return
	}

	acks, err := h.vocab.Submit(r.Context(), middleware.GetUserID(r.Context()), req.Results)
	if err != nil {
		h.log.Error("failed to submit batch", "error", err, "request_id", middleware.GetRequestID(r))
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SubmitBatchResponse{Results: acks})
}

func (h *VocabularyHandler) Progress(w http.ResponseWriter, r *http.Request) {
	wordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid word ID", r))
		return
	}

	entry, err := h.vocab.Progress(r.Context(), middleware.GetUserID(r.Context()), wordID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Word has not been studied yet", r))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Quiz serves a multiple-choice meaning question for one word.
func (h *VocabularyHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	wordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid word ID", r))
		return
	}

	quiz, err := h.vocab.Quiz(r.Context(), wordID)
	if err != nil {
		if !errors.Is(err, mastery.ErrUnknownItem) {
			h.log.Error("failed to build quiz", "word_id", wordID, "error", err, "request_id", middleware.GetRequestID(r))
		}
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// ListWords pages through the catalog. all=true returns every word.
func (h *VocabularyHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxWordPageSize {
			fields["limit"] = fmt.Sprintf("must be between 1 and %d", maxWordPageSize)
		}
		limit = n
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["offset"] = "must be a non-negative integer"
		}
		offset = n
	}
	all := false
	if raw := q.Get("all"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fields["all"] = "must be true or false"
		}
		all = b
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	list, err := h.vocab.ListWords(r.Context(), limit, offset, all)
	if err != nil {
		h.log.Error("failed to list words", "error", err, "request_id", middleware.GetRequestID(r))
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VocabularyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vocab.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.log.Error("failed to load stats", "error", err, "request_id", middleware.GetRequestID(r))
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *VocabularyHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"format": "must be one of json, csv, xlsx"}, r))
		return
	}

	rows, err := h.vocab.Export(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.log.Error("failed to export progress", "error", err, "request_id", middleware.GetRequestID(r))
		handleEngineError(w, r, err)
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
		return
	}

	// Encode fully before writing headers so a failure can still produce an error envelope.
	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == "csv" {
		err = services.WriteCSV(&buf, rows)
	} else {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = services.WriteXLSX(&buf, rows)
	}
	if err != nil {
		h.log.Error("failed to encode export", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build export", r))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vocabulary.%s"`, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
