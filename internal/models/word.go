package models

import (
	"time"

	"github.com/google/uuid"
)

// Word is a catalog entry produced by content ingestion. Read-only to the review engine.
type Word struct {
	ID                 uuid.UUID `json:"id"`
	Word               string    `json:"word"`
	Phonetic           *string   `json:"phonetic"`
	Meaning            string    `json:"meaning"`
	Example            *string   `json:"example"`
	ExampleTranslation *string   `json:"example_translation"`
	Difficulty         int       `json:"difficulty"` // ordinal, lower is easier
	CreatedAt          time.Time `json:"created_at"`
}

// WordProgress is one learner's ledger entry for one word.
// A row exists only after the learner's first graded submission.
type WordProgress struct {
	UserID             uuid.UUID  `json:"user_id"`
	WordID             uuid.UUID  `json:"word_id"`
	MasteryScore       int        `json:"mastery_score"`
	ReviewCount        int        `json:"review_count"`
	ErrorCount         int        `json:"error_count"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	LearningSessions   int        `json:"learning_sessions"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at"`
	NextReviewAt       *time.Time `json:"next_review_at"`
	Version            int        `json:"-"` // 0 until persisted
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// IsDue reports whether the entry may be offered as a review at now.
func (p *WordProgress) IsDue(now time.Time) bool {
	return p.NextReviewAt != nil && !p.NextReviewAt.After(now)
}

// Clone returns a deep copy so reducers never alias the caller's timestamps.
func (p *WordProgress) Clone() *WordProgress {
	c := *p
	if p.LastReviewedAt != nil {
		t := *p.LastReviewedAt
		c.LastReviewedAt = &t
	}
	if p.NextReviewAt != nil {
		t := *p.NextReviewAt
		c.NextReviewAt = &t
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
