package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchMode names the tier that produced a batch.
type BatchMode string

const (
	BatchModeReview   BatchMode = "review"
	BatchModeLearn    BatchMode = "learn"
	BatchModePractice BatchMode = "practice"
)

type Batch struct {
	Mode  BatchMode `json:"mode"`
	Words []Word    `json:"items"`
}

// OutcomeRequest is one graded (or skipped) practice result as sent by the client.
type OutcomeRequest struct {
	WordID          uuid.UUID `json:"item_id"`
	Skipped         bool      `json:"skipped"`
	MeaningCorrect  *bool     `json:"meaning_correct"`
	SpellingCorrect *bool     `json:"spelling_correct"`
}

type SubmitBatchRequest struct {
	Results []OutcomeRequest `json:"results"`
}

// Submission acknowledgement statuses.
const (
	SubmitStatusApplied = "applied"
	SubmitStatusSkipped = "skipped"
	SubmitStatusFailed  = "failed"
)

type SubmitAck struct {
	WordID   uuid.UUID     `json:"item_id"`
	Status   string        `json:"status"`
	Code     string        `json:"code,omitempty"`
	Message  string        `json:"message,omitempty"`
	Progress *WordProgress `json:"progress,omitempty"`
}

type SubmitBatchResponse struct {
	Results []SubmitAck `json:"results"`
}

type MasteryBand struct {
	Band  int `json:"band"`
	Count int `json:"count"`
}

type LearnerStats struct {
	TotalWords          int           `json:"total_words"`
	TotalReviews        int           `json:"total_reviews"`
	TotalErrors         int           `json:"total_errors"`
	AvgMastery          float64       `json:"avg_mastery"`
	NeedReview          int           `json:"need_review"`
	MasteryDistribution []MasteryBand `json:"mastery_distribution"`
	RecentWords         []Word        `json:"recent_words"`
}

// ExportRow is one catalog word joined with the learner's ledger entry.
type ExportRow struct {
	Word               string     `json:"word"`
	Phonetic           *string    `json:"phonetic"`
	Meaning            string     `json:"meaning"`
	Example            *string    `json:"example"`
	ExampleTranslation *string    `json:"example_translation"`
	Difficulty         int        `json:"difficulty"`
	MasteryScore       int        `json:"mastery_score"`
	ReviewCount        int        `json:"review_count"`
	ErrorCount         int        `json:"error_count"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at"`
	NextReviewAt       *time.Time `json:"next_review_at"`
}

// DueSummary is used by the reminder job.
type DueSummary struct {
	UserID   uuid.UUID `json:"user_id"`
	DueCount int       `json:"due_count"`
}
