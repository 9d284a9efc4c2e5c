package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lexora-backend/internal/mastery"
	"lexora-backend/internal/models"
)

var testNow = time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	words   []models.Word
	entries map[uuid.UUID]*models.WordProgress

	// conflicts is the number of upserts that fail with a version conflict.
	conflicts  int
	upserts    int
	upsertErr  error
	catalogErr error
	due        []models.DueSummary

	// distractorErr fails only the quiz distractor sample.
	distractorErr error
}

func newFakeStore(words ...models.Word) *fakeStore {
	return &fakeStore{words: words, entries: make(map[uuid.UUID]*models.WordProgress)}
}

func (s *fakeStore) ListAllWords(ctx context.Context) ([]models.Word, error) {
	return s.words, s.catalogErr
}

func (s *fakeStore) ListUnseenWords(ctx context.Context, userID uuid.UUID, limit int) ([]models.Word, error) {
	var out []models.Word
	for _, w := range s.words {
		if _, ok := s.entries[w.ID]; !ok && len(out) < limit {
			out = append(out, w)
		}
	}
	return out, s.catalogErr
}

func (s *fakeStore) GetWordsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Word, error) {
	if s.catalogErr != nil {
		return nil, s.catalogErr
	}
	var out []models.Word
	for _, id := range ids {
		for _, w := range s.words {
			if w.ID == id {
				out = append(out, w)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ListDistractors(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Word, error) {
	if s.distractorErr != nil {
		return nil, s.distractorErr
	}
	var out []models.Word
	for _, w := range s.words {
		if w.ID != excludeID && len(out) < limit {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *fakeStore) GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.WordProgress, error) {
	return nil, nil
}

func (s *fakeStore) GetHighestErrorEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.WordProgress, error) {
	return nil, nil
}

func (s *fakeStore) GetEntry(ctx context.Context, userID, wordID uuid.UUID) (*models.WordProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[wordID]; ok {
		return e.Clone(), nil
	}
	return nil, nil
}

func (s *fakeStore) UpsertEntry(ctx context.Context, e *models.WordProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.conflicts > 0 {
		s.conflicts--
		return mastery.ErrConcurrentUpdate
	}
	e.Version++
	s.entries[e.WordID] = e.Clone()
	return nil
}

func (s *fakeStore) GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.LearnerStats, error) {
	return &models.LearnerStats{TotalWords: len(s.entries)}, nil
}

func (s *fakeStore) ListExportRows(ctx context.Context, userID uuid.UUID) ([]models.ExportRow, error) {
	return nil, nil
}

func (s *fakeStore) ListLearnersWithDue(ctx context.Context, now time.Time) ([]models.DueSummary, error) {
	return s.due, nil
}

type published struct {
	userID uuid.UUID
	msg    models.WSMessage
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{userID: userID, msg: msg})
}

type memLocks struct {
	held map[string]bool
	err  error
}

func (m *memLocks) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if m.err != nil {
		return redis.NewBoolResult(false, m.err)
	}
	if m.held[key] {
		return redis.NewBoolResult(false, nil)
	}
	m.held[key] = true
	return redis.NewBoolResult(true, nil)
}

func boolPtr(b bool) *bool { return &b }
