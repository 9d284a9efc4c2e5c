package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lexora-backend/internal/logger"
	"lexora-backend/internal/mastery"
	"lexora-backend/internal/models"
)

// Acknowledgement codes for failed submissions.
const (
	AckCodeInvalidOutcome = "INVALID_OUTCOME"
	AckCodeUnknownItem    = "UNKNOWN_ITEM"
	AckCodeConflict       = "CONFLICT"
	AckCodeInternal       = "INTERNAL_ERROR"
)

// maxWriteAttempts is the initial read-modify-write plus one retry after a conflict.
const maxWriteAttempts = 2

// quizCandidatePool over-samples distractors so duplicate meanings can be dropped.
const quizCandidatePool = 4 * mastery.QuizDistractors

// DefaultWordPageSize is the catalog page size when none is requested.
const DefaultWordPageSize = 100

type wordCatalog interface {
	mastery.Catalog
	ListDistractors(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Word, error)
}

type ledgerStore interface {
	mastery.Ledger
	GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.LearnerStats, error)
	ListExportRows(ctx context.Context, userID uuid.UUID) ([]models.ExportRow, error)
}

// Publisher pushes a message to one learner's connected clients.
type Publisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

type VocabularyService struct {
	catalog   wordCatalog
	ledger    ledgerStore
	composer  *mastery.Composer
	updater   *mastery.Updater
	clock     mastery.Clock
	rnd       mastery.Rand
	publisher Publisher
	log       *logger.Logger

	defaultBatchSize int
	maxBatchSize     int
}

func NewVocabularyService(
	catalog wordCatalog,
	ledger ledgerStore,
	schedule mastery.Schedule,
	clock mastery.Clock,
	rnd mastery.Rand,
	publisher Publisher,
	log *logger.Logger,
	defaultBatchSize int,
	maxBatchSize int,
) *VocabularyService {
	if clock == nil {
		clock = mastery.SystemClock{}
	}
	if rnd == nil {
		rnd = mastery.NewLockedRand(time.Now().UnixNano())
	}
	if defaultBatchSize <= 0 {
		defaultBatchSize = 6
	}
	if maxBatchSize < defaultBatchSize {
		maxBatchSize = defaultBatchSize
	}
	return &VocabularyService{
		catalog:          catalog,
		ledger:           ledger,
		composer:         mastery.NewComposer(catalog, ledger, clock),
		updater:          mastery.NewUpdater(schedule, clock),
		clock:            clock,
		rnd:              rnd,
		publisher:        publisher,
		log:              log.With("service", "VocabularyService"),
		defaultBatchSize: defaultBatchSize,
		maxBatchSize:     maxBatchSize,
	}
}

// NextBatch composes the learner's next batch. size 0 selects the default;
// sizes above the configured maximum are capped.
func (s *VocabularyService) NextBatch(ctx context.Context, userID uuid.UUID, size int) (*models.Batch, error) {
	switch {
	case size == 0:
		size = s.defaultBatchSize
	case size < 0:
		return nil, mastery.ErrInvalidBatchSize
	case size > s.maxBatchSize:
		size = s.maxBatchSize
	}

	batch, err := s.composer.ComposeBatch(ctx, userID, size)
	if err != nil {
		return nil, err
	}
	s.log.Debug("batch composed", "user_id", userID, "mode", batch.Mode, "items", len(batch.Words))
	return batch, nil
}

// Submit applies each result independently and acknowledges each one. A
// failure on one item never stops its siblings. The returned error is
// non-nil only when the catalog lookup for the whole submission fails.
func (s *VocabularyService) Submit(ctx context.Context, userID uuid.UUID, results []models.OutcomeRequest) ([]models.SubmitAck, error) {
	known, err := s.knownWords(ctx, results)
	if err != nil {
		return nil, err
	}

	acks := make([]models.SubmitAck, 0, len(results))
	for _, res := range results {
		acks = append(acks, s.submitOne(ctx, userID, res, known))
	}
	return acks, nil
}

func (s *VocabularyService) submitOne(ctx context.Context, userID uuid.UUID, res models.OutcomeRequest, known map[uuid.UUID]bool) models.SubmitAck {
	ack := models.SubmitAck{WordID: res.WordID}

	outcome, err := mastery.ParseOutcome(res)
	if err != nil {
		return failedAck(ack, AckCodeInvalidOutcome, err.Error())
	}
	if !known[res.WordID] {
		return failedAck(ack, AckCodeUnknownItem, mastery.ErrUnknownItem.Error())
	}
	if _, skipped := outcome.(mastery.Skipped); skipped {
		ack.Status = models.SubmitStatusSkipped
		return ack
	}

	entry, err := s.applyWithRetry(ctx, userID, res.WordID, outcome)
	switch {
	case errors.Is(err, mastery.ErrConcurrentUpdate):
		s.log.Warn("ledger conflict persisted after retry", "user_id", userID, "word_id", res.WordID)
		return failedAck(ack, AckCodeConflict, "concurrent update, please resubmit")
	case errors.Is(err, mastery.ErrInvalidOutcome):
		return failedAck(ack, AckCodeInvalidOutcome, err.Error())
	case errors.Is(err, mastery.ErrUnknownItem):
		// Removed from the catalog after it was resolved.
		s.log.Warn("word vanished before ledger write", "user_id", userID, "word_id", res.WordID)
		return failedAck(ack, AckCodeUnknownItem, mastery.ErrUnknownItem.Error())
	case err != nil:
		s.log.Error("failed to apply outcome", "user_id", userID, "word_id", res.WordID, "error", err)
		return failedAck(ack, AckCodeInternal, "failed to record result")
	}

	ack.Status = models.SubmitStatusApplied
	ack.Progress = entry
	if s.publisher != nil {
		s.publisher.PublishUpdate(ctx, userID, models.WSMessage{
			Type: models.WSTypeProgressUpdated,
			Payload: models.ProgressUpdated{
				WordID:       entry.WordID,
				MasteryScore: entry.MasteryScore,
				ErrorCount:   entry.ErrorCount,
				NextReviewAt: entry.NextReviewAt,
			},
		})
	}
	return ack
}

// applyWithRetry runs the read-modify-write for one (user, word) pair. A
// version conflict re-reads and re-applies once before giving up.
func (s *VocabularyService) applyWithRetry(ctx context.Context, userID, wordID uuid.UUID, outcome mastery.Outcome) (*models.WordProgress, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		current, err := s.ledger.GetEntry(ctx, userID, wordID)
		if err != nil {
			return nil, err
		}
		next, changed, err := s.updater.Apply(userID, wordID, current, outcome)
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}
		err = s.ledger.UpsertEntry(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, mastery.ErrConcurrentUpdate) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *VocabularyService) knownWords(ctx context.Context, results []models.OutcomeRequest) (map[uuid.UUID]bool, error) {
	seen := make(map[uuid.UUID]bool, len(results))
	ids := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		if r.WordID == uuid.Nil || seen[r.WordID] {
			continue
		}
		seen[r.WordID] = true
		ids = append(ids, r.WordID)
	}

	known := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}
	words, err := s.catalog.GetWordsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve submitted words: %w", err)
	}
	for _, w := range words {
		known[w.ID] = true
	}
	return known, nil
}

// Progress returns the learner's entry for wordID, or nil when unseen.
func (s *VocabularyService) Progress(ctx context.Context, userID, wordID uuid.UUID) (*models.WordProgress, error) {
	words, err := s.catalog.GetWordsByIDs(ctx, []uuid.UUID{wordID})
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, mastery.ErrUnknownItem
	}
	return s.ledger.GetEntry(ctx, userID, wordID)
}

// Quiz builds a multiple-choice meaning question for wordID.
func (s *VocabularyService) Quiz(ctx context.Context, wordID uuid.UUID) (*models.Quiz, error) {
	words, err := s.catalog.GetWordsByIDs(ctx, []uuid.UUID{wordID})
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, mastery.ErrUnknownItem
	}
	candidates, err := s.catalog.ListDistractors(ctx, wordID, quizCandidatePool)
	if err != nil {
		return nil, fmt.Errorf("failed to load distractors: %w", err)
	}
	quiz := mastery.BuildQuiz(words[0], candidates, s.rnd)
	return &quiz, nil
}

// ListWords pages through the catalog, easiest first. all ignores limit and offset.
func (s *VocabularyService) ListWords(ctx context.Context, limit, offset int, all bool) (*models.WordList, error) {
	words, err := s.catalog.ListAllWords(ctx)
	if err != nil {
		return nil, err
	}
	list := &models.WordList{Words: []models.Word{}, Total: len(words)}
	if all {
		list.Words = append(list.Words, words...)
		return list, nil
	}
	if limit <= 0 {
		limit = DefaultWordPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(words) {
		return list, nil
	}
	end := min(offset+limit, len(words))
	list.Words = append(list.Words, words[offset:end]...)
	return list, nil
}

func (s *VocabularyService) Stats(ctx context.Context, userID uuid.UUID) (*models.LearnerStats, error) {
	return s.ledger.GetStats(ctx, userID, s.clock.Now())
}

func (s *VocabularyService) Export(ctx context.Context, userID uuid.UUID) ([]models.ExportRow, error) {
	return s.ledger.ListExportRows(ctx, userID)
}

func failedAck(ack models.SubmitAck, code, message string) models.SubmitAck {
	ack.Status = models.SubmitStatusFailed
	ack.Code = code
	ack.Message = message
	return ack
}
