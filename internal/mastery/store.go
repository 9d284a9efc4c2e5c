package mastery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lexora-backend/internal/models"
)

// Catalog is the read-only view over vocabulary words.
type Catalog interface {
	ListAllWords(ctx context.Context) ([]models.Word, error)
	// ListUnseenWords returns words with no ledger entry for userID, easiest first.
	ListUnseenWords(ctx context.Context, userID uuid.UUID, limit int) ([]models.Word, error)
	GetWordsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Word, error)
}

// LedgerReader is the read side of the mastery ledger.
type LedgerReader interface {
	// GetDueEntries returns entries with next_review_at <= now, most overdue first.
	GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.WordProgress, error)
	// GetHighestErrorEntries returns entries ordered by error_count descending.
	GetHighestErrorEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.WordProgress, error)
	// GetEntry returns nil, nil when the learner has no entry for wordID.
	GetEntry(ctx context.Context, userID, wordID uuid.UUID) (*models.WordProgress, error)
}

// LedgerWriter persists entries produced by the Updater.
type LedgerWriter interface {
	// UpsertEntry is atomic per (user, word). entry.Version is the version the
	// entry was read at; on success it is advanced. A lost race returns
	// ErrConcurrentUpdate.
	UpsertEntry(ctx context.Context, entry *models.WordProgress) error
}

type Ledger interface {
	LedgerReader
	LedgerWriter
}
