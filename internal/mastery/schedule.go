package mastery

import (
	"fmt"
	"math"
	"time"

	"lexora-backend/internal/models"
)

// MasteryIntervalHours is the base interval per mastery band: 1h, 12h, 1d, 3d, 1w, 2w, 30d.
var MasteryIntervalHours = []float64{1, 12, 24, 72, 168, 336, 720}

// ReviewCountIntervalHours is the interval per completed review: 1h, 1d, 3d, 7d, 15d, 30d.
var ReviewCountIntervalHours = []float64{1, 24, 72, 168, 360, 720}

const (
	MinIntervalHours = 1
	MaxIntervalHours = 720

	// MaxPenaltyErrors caps the error penalty at 0.5^5 = 1/32.
	MaxPenaltyErrors = 5

	masteryBandWidth = 15
)

// Policy names accepted by NewSchedule.
const (
	PolicyMasteryPenalty = "mastery_penalty"
	PolicyReviewCount    = "review_count"
)

// Schedule computes when an entry that was just reviewed may be offered again.
type Schedule interface {
	Name() string
	Next(entry *models.WordProgress, now time.Time) time.Time
}

// NewSchedule returns the named policy.
func NewSchedule(name string) (Schedule, error) {
	switch name {
	case "", PolicyMasteryPenalty:
		return MasteryPenaltySchedule{}, nil
	case PolicyReviewCount:
		return ReviewCountSchedule{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchedule, name)
	}
}

// Bucket maps a mastery score to its band in MasteryIntervalHours.
func Bucket(masteryScore int) int {
	b := clampInt(masteryScore, 0, 100) / masteryBandWidth
	if b > len(MasteryIntervalHours)-1 {
		b = len(MasteryIntervalHours) - 1
	}
	return b
}

// Penalty halves the interval for each historical error, up to MaxPenaltyErrors.
func Penalty(errorCount int) float64 {
	return math.Pow(0.5, float64(clampInt(errorCount, 0, MaxPenaltyErrors)))
}

// IntervalHours is the mastery/error-penalty interval, clamped to [1, 720] hours.
func IntervalHours(masteryScore, errorCount int) float64 {
	h := MasteryIntervalHours[Bucket(masteryScore)] * Penalty(errorCount)
	return math.Max(MinIntervalHours, math.Min(MaxIntervalHours, h))
}

// ScheduleNext returns now plus the mastery/error-penalty interval.
func ScheduleNext(masteryScore, errorCount int, now time.Time) time.Time {
	return now.Add(hoursToDuration(IntervalHours(masteryScore, errorCount)))
}

// MasteryPenaltySchedule grows the interval with mastery and shrinks it with error history.
type MasteryPenaltySchedule struct{}

func (MasteryPenaltySchedule) Name() string { return PolicyMasteryPenalty }

func (MasteryPenaltySchedule) Next(entry *models.WordProgress, now time.Time) time.Time {
	return ScheduleNext(entry.MasteryScore, entry.ErrorCount, now)
}

// ReviewCountSchedule indexes ReviewCountIntervalHours by the number of reviews
// completed before the current one. Errors do not shorten the interval.
type ReviewCountSchedule struct{}

func (ReviewCountSchedule) Name() string { return PolicyReviewCount }

func (ReviewCountSchedule) Next(entry *models.WordProgress, now time.Time) time.Time {
	idx := clampInt(entry.ReviewCount-1, 0, len(ReviewCountIntervalHours)-1)
	return now.Add(hoursToDuration(ReviewCountIntervalHours[idx]))
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
