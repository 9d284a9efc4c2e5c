package mastery

import "errors"

// Sentinel errors for the review engine.
// Use errors.Is to check: errors.Is(err, mastery.ErrUnknownItem)
var (
	ErrInvalidOutcome   = errors.New("mastery: invalid outcome")
	ErrUnknownItem      = errors.New("mastery: unknown item")
	ErrConcurrentUpdate = errors.New("mastery: concurrent ledger update")
	ErrInvalidBatchSize = errors.New("mastery: batch size must be positive")
	ErrUnknownSchedule  = errors.New("mastery: unknown schedule policy")
)
