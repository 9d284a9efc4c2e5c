package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeProgressUpdated = "progress_updated"
	WSTypeReviewDue       = "review_due"
)

type ProgressUpdated struct {
	WordID       uuid.UUID  `json:"item_id"`
	MasteryScore int        `json:"mastery_score"`
	ErrorCount   int        `json:"error_count"`
	NextReviewAt *time.Time `json:"next_review_at"`
}

type ReviewDue struct {
	DueCount int `json:"due_count"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// UserUpdatesChannel is the redis pub/sub channel for one learner's push messages.
func UserUpdatesChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}
