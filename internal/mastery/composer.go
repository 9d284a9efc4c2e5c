package mastery

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"lexora-backend/internal/models"
)

// Composer selects the next practice batch. It never writes.
//
// Tiers are tried in order and the first non-empty one wins:
// due reviews (most overdue first), unseen words (easiest first), then the
// learner's most error-prone words.
type Composer struct {
	catalog Catalog
	ledger  LedgerReader
	clock   Clock
}

func NewComposer(catalog Catalog, ledger LedgerReader, clock Clock) *Composer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Composer{catalog: catalog, ledger: ledger, clock: clock}
}

func (c *Composer) ComposeBatch(ctx context.Context, userID uuid.UUID, size int) (*models.Batch, error) {
	if size <= 0 {
		return nil, ErrInvalidBatchSize
	}
	now := c.clock.Now()

	due, err := c.ledger.GetDueEntries(ctx, userID, now, size)
	if err != nil {
		return nil, err
	}
	due = filterDue(due, now)
	sortDue(due)
	words, err := c.hydrate(ctx, limitEntries(due, size))
	if err != nil {
		return nil, err
	}
	if len(words) > 0 {
		return &models.Batch{Mode: models.BatchModeReview, Words: words}, nil
	}

	unseen, err := c.catalog.ListUnseenWords(ctx, userID, size)
	if err != nil {
		return nil, err
	}
	if len(unseen) > 0 {
		sortUnseen(unseen)
		if len(unseen) > size {
			unseen = unseen[:size]
		}
		return &models.Batch{Mode: models.BatchModeLearn, Words: unseen}, nil
	}

	weak, err := c.ledger.GetHighestErrorEntries(ctx, userID, size)
	if err != nil {
		return nil, err
	}
	sortWeak(weak)
	words, err = c.hydrate(ctx, limitEntries(weak, size))
	if err != nil {
		return nil, err
	}
	if len(words) > 0 {
		return &models.Batch{Mode: models.BatchModePractice, Words: words}, nil
	}

	// Empty catalog.
	return &models.Batch{Mode: models.BatchModeLearn, Words: []models.Word{}}, nil
}

// hydrate resolves entries to catalog words, keeping entry order and dropping
// entries whose word is no longer in the catalog.
func (c *Composer) hydrate(ctx context.Context, entries []models.WordProgress) ([]models.Word, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.WordID
	}
	found, err := c.catalog.GetWordsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Word, len(found))
	for _, w := range found {
		byID[w.ID] = w
	}
	words := make([]models.Word, 0, len(entries))
	for _, e := range entries {
		if w, ok := byID[e.WordID]; ok {
			words = append(words, w)
		}
	}
	return words, nil
}

func filterDue(entries []models.WordProgress, now time.Time) []models.WordProgress {
	out := entries[:0:0]
	for i := range entries {
		if entries[i].IsDue(now) {
			out = append(out, entries[i])
		}
	}
	return out
}

func limitEntries(entries []models.WordProgress, n int) []models.WordProgress {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// sortDue orders by next_review_at ascending, then word id ascending.
func sortDue(entries []models.WordProgress) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.NextReviewAt.Equal(*b.NextReviewAt) {
			return a.NextReviewAt.Before(*b.NextReviewAt)
		}
		return lessID(a.WordID, b.WordID)
	})
}

// sortUnseen orders by difficulty ascending, then word id ascending.
func sortUnseen(words []models.Word) {
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Difficulty != words[j].Difficulty {
			return words[i].Difficulty < words[j].Difficulty
		}
		return lessID(words[i].ID, words[j].ID)
	})
}

// sortWeak orders by error_count descending, then last_reviewed_at ascending
// (never-reviewed first), then word id ascending.
func sortWeak(entries []models.WordProgress) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ErrorCount != b.ErrorCount {
			return a.ErrorCount > b.ErrorCount
		}
		switch {
		case a.LastReviewedAt == nil && b.LastReviewedAt != nil:
			return true
		case a.LastReviewedAt != nil && b.LastReviewedAt == nil:
			return false
		case a.LastReviewedAt != nil && !a.LastReviewedAt.Equal(*b.LastReviewedAt):
			return a.LastReviewedAt.Before(*b.LastReviewedAt)
		}
		return lessID(a.WordID, b.WordID)
	})
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
