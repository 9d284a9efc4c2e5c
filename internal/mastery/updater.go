package mastery

import (
	"fmt"

	"github.com/google/uuid"

	"lexora-backend/internal/models"
)

// Score arithmetic for a graded submission.
const (
	MinMastery = 0
	MaxMastery = 100

	BothCorrectGain   = 10
	StreakBonus       = 5
	StreakThreshold   = 3
	OneCorrectGain    = 5
	NeitherCorrectHit = 15
)

// Updater applies practice outcomes to ledger entries. It performs no I/O;
// the caller persists the returned entry.
type Updater struct {
	schedule Schedule
	clock    Clock
}

func NewUpdater(schedule Schedule, clock Clock) *Updater {
	if schedule == nil {
		schedule = MasteryPenaltySchedule{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Updater{schedule: schedule, clock: clock}
}

// Schedule returns the policy the updater was built with.
func (u *Updater) Schedule() Schedule { return u.schedule }

// Apply returns the entry that results from outcome. current may be nil when
// the learner has never submitted this word. For Skipped, Apply returns
// current unchanged and changed=false.
func (u *Updater) Apply(userID, wordID uuid.UUID, current *models.WordProgress, outcome Outcome) (next *models.WordProgress, changed bool, err error) {
	return ApplyOutcome(userID, wordID, current, outcome, u.schedule, u.clock)
}

// ApplyOutcome is the pure reducer behind Updater.Apply.
func ApplyOutcome(userID, wordID uuid.UUID, current *models.WordProgress, outcome Outcome, schedule Schedule, clock Clock) (*models.WordProgress, bool, error) {
	var g Graded
	switch o := outcome.(type) {
	case Skipped:
		return current, false, nil
	case Graded:
		g = o
	case nil:
		return nil, false, fmt.Errorf("%w: nil outcome", ErrInvalidOutcome)
	default:
		return nil, false, fmt.Errorf("%w: unsupported outcome %T", ErrInvalidOutcome, outcome)
	}

	var next *models.WordProgress
	if current == nil {
		next = &models.WordProgress{UserID: userID, WordID: wordID}
	} else {
		next = current.Clone()
	}

	switch g.Classify() {
	case GradeBothCorrect:
		next.MasteryScore = clampInt(next.MasteryScore+BothCorrectGain, MinMastery, MaxMastery)
		next.ConsecutiveCorrect++
		if next.ConsecutiveCorrect >= StreakThreshold {
			next.MasteryScore = clampInt(next.MasteryScore+StreakBonus, MinMastery, MaxMastery)
		}
	case GradeOneCorrect:
		next.MasteryScore = clampInt(next.MasteryScore+OneCorrectGain, MinMastery, MaxMastery)
		next.ConsecutiveCorrect = 0
	case GradeNeitherCorrect:
		next.MasteryScore = clampInt(next.MasteryScore-NeitherCorrectHit, MinMastery, MaxMastery)
		next.ErrorCount++
		next.ConsecutiveCorrect = 0
	}

	next.ReviewCount++
	next.LearningSessions++

	now := clock.Now()
	nextReview := schedule.Next(next, now)
	if nextReview.Before(now) {
		nextReview = now
	}
	next.LastReviewedAt = &now
	next.NextReviewAt = &nextReview

	return next, true, nil
}
