package mastery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lexora-backend/internal/models"
)

// memStore is an in-memory Catalog and Ledger used by the engine tests.
type memStore struct {
	mu      sync.Mutex
	words   []models.Word
	entries map[uuid.UUID]map[uuid.UUID]*models.WordProgress

	dueCalls, unseenCalls, weakCalls int
	err                              error
}

func newMemStore(words ...models.Word) *memStore {
	return &memStore{
		words:   words,
		entries: make(map[uuid.UUID]map[uuid.UUID]*models.WordProgress),
	}
}

func (s *memStore) put(e models.WordProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[e.UserID] == nil {
		s.entries[e.UserID] = make(map[uuid.UUID]*models.WordProgress)
	}
	s.entries[e.UserID][e.WordID] = e.Clone()
}

func (s *memStore) ListAllWords(ctx context.Context) ([]models.Word, error) {
	return append([]models.Word(nil), s.words...), s.err
}

func (s *memStore) ListUnseenWords(ctx context.Context, userID uuid.UUID, limit int) ([]models.Word, error) {
	s.unseenCalls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Word
	for _, w := range s.words {
		if _, seen := s.entries[userID][w.ID]; !seen {
			out = append(out, w)
		}
	}
	sortUnseen(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetWordsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Word, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Word
	// Reverse catalog order so callers cannot rely on it.
	for i := len(s.words) - 1; i >= 0; i-- {
		if want[s.words[i].ID] {
			out = append(out, s.words[i])
		}
	}
	return out, s.err
}

func (s *memStore) GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.WordProgress, error) {
	s.dueCalls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.WordProgress
	for _, e := range s.entries[userID] {
		if e.IsDue(now) {
			out = append(out, *e.Clone())
		}
	}
	sortDue(out)
	return limitEntries(out, limit), nil
}

func (s *memStore) GetHighestErrorEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.WordProgress, error) {
	s.weakCalls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.WordProgress
	for _, e := range s.entries[userID] {
		out = append(out, *e.Clone())
	}
	// Orders by error count only; ties keep map order.
	sort.Slice(out, func(i, j int) bool { return out[i].ErrorCount > out[j].ErrorCount })
	return limitEntries(out, limit), nil
}

func (s *memStore) GetEntry(ctx context.Context, userID, wordID uuid.UUID) (*models.WordProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID][wordID]
	if !ok {
		return nil, s.err
	}
	return e.Clone(), s.err
}

func (s *memStore) UpsertEntry(ctx context.Context, entry *models.WordProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[entry.UserID][entry.WordID]
	switch {
	case !ok && entry.Version != 0, ok && cur.Version != entry.Version:
		return ErrConcurrentUpdate
	}
	entry.Version++
	if s.entries[entry.UserID] == nil {
		s.entries[entry.UserID] = make(map[uuid.UUID]*models.WordProgress)
	}
	s.entries[entry.UserID][entry.WordID] = entry.Clone()
	return nil
}

// catalogOf builds n words with ascending difficulty in reverse insertion order.
func catalogOf(n int) []models.Word {
	words := make([]models.Word, n)
	for i := 0; i < n; i++ {
		words[i] = models.Word{
			ID:         uuid.New(),
			Word:       "word" + string(rune('a'+i%26)),
			Meaning:    fmt.Sprintf("meaning %d", i),
			Difficulty: n - i,
		}
	}
	return words
}

func timePtr(t time.Time) *time.Time { return &t }
