package mastery

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexora-backend/internal/models"
)

// Properties that must hold over generated inputs rather than hand-picked cases.

func TestIntervalHours_MonotonicInMastery(t *testing.T) {
	for errs := 0; errs <= 8; errs++ {
		prev := 0.0
		for score := 0; score <= 100; score++ {
			h := IntervalHours(score, errs)
			assert.GreaterOrEqualf(t, h, prev, "score=%d errors=%d", score, errs)
			prev = h
		}
	}
}

func TestIntervalHours_PenaltyFloorAtFiveErrors(t *testing.T) {
	for score := 0; score <= 100; score++ {
		floor := IntervalHours(score, MaxPenaltyErrors)
		for errs := MaxPenaltyErrors + 1; errs <= 50; errs += 7 {
			assert.Equalf(t, floor, IntervalHours(score, errs), "score=%d errors=%d", score, errs)
		}
	}
}

func TestIntervalHours_Bounds(t *testing.T) {
	for score := -20; score <= 120; score++ {
		for errs := -2; errs <= 12; errs++ {
			h := IntervalHours(score, errs)
			require.GreaterOrEqualf(t, h, float64(MinIntervalHours), "score=%d errors=%d", score, errs)
			require.LessOrEqualf(t, h, float64(MaxIntervalHours), "score=%d errors=%d", score, errs)
		}
	}
}

func TestApply_RandomSequenceStaysInBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	now := testNow
	clock := ClockFunc(func() time.Time { return now })

	for _, schedule := range []Schedule{MasteryPenaltySchedule{}, ReviewCountSchedule{}} {
		u := NewUpdater(schedule, clock)
		userID, wordID := uuid.New(), uuid.New()
		var entry *models.WordProgress

		for step := 0; step < 1000; step++ {
			now = now.Add(time.Duration(rnd.Intn(72)) * time.Hour)

			var outcome Outcome = Graded{Primary: rnd.Intn(2) == 0, Secondary: rnd.Intn(2) == 0}
			if rnd.Intn(5) == 0 {
				outcome = Skipped{}
			}

			next, changed, err := u.Apply(userID, wordID, entry, outcome)
			require.NoError(t, err)

			if _, skipped := outcome.(Skipped); skipped {
				require.False(t, changed)
				require.True(t, next == entry, "skip must return the current entry")
				continue
			}
			require.True(t, changed)
			require.NotNil(t, next.LastReviewedAt)
			require.NotNil(t, next.NextReviewAt)

			assert.GreaterOrEqual(t, next.MasteryScore, MinMastery)
			assert.LessOrEqual(t, next.MasteryScore, MaxMastery)
			assert.False(t, next.NextReviewAt.Before(*next.LastReviewedAt), "step %d schedules into the past", step)
			if entry != nil {
				assert.GreaterOrEqual(t, next.ReviewCount, entry.ReviewCount)
				assert.GreaterOrEqual(t, next.ErrorCount, entry.ErrorCount)
				assert.GreaterOrEqual(t, next.LearningSessions, entry.LearningSessions)
			}
			entry = next
		}
	}
}

func TestComposeBatch_Deterministic(t *testing.T) {
	words := catalogOf(20)
	s := newMemStore(words...)
	userID := uuid.New()
	for i := 0; i < 8; i++ {
		s.put(models.WordProgress{
			UserID:         userID,
			WordID:         words[i].ID,
			MasteryScore:   (i * 13) % 100,
			ErrorCount:     i % 3,
			LastReviewedAt: timePtr(testNow.Add(-48 * time.Hour)),
			// Two entries per due instant so ties are exercised.
			NextReviewAt: timePtr(testNow.Add(-time.Duration(i/2) * time.Hour)),
		})
	}
	c := newTestComposer(s)

	first, err := c.ComposeBatch(context.Background(), userID, 6)
	require.NoError(t, err)
	require.Equal(t, models.BatchModeReview, first.Mode)

	for i := 0; i < 10; i++ {
		again, err := c.ComposeBatch(context.Background(), userID, 6)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestComposeBatch_AnyDueEntrySelectsReview(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))

	for trial := 0; trial < 50; trial++ {
		words := catalogOf(1 + rnd.Intn(15))
		s := newMemStore(words...)
		userID := uuid.New()

		due := 0
		for _, w := range words {
			if rnd.Intn(3) == 0 {
				continue
			}
			offset := time.Duration(rnd.Intn(48)-24) * time.Hour
			if offset <= 0 {
				due++
			}
			s.put(models.WordProgress{
				UserID:         userID,
				WordID:         w.ID,
				MasteryScore:   rnd.Intn(101),
				ErrorCount:     rnd.Intn(6),
				LastReviewedAt: timePtr(testNow.Add(-72 * time.Hour)),
				NextReviewAt:   timePtr(testNow.Add(offset)),
			})
		}

		batch, err := newTestComposer(s).ComposeBatch(context.Background(), userID, 6)
		require.NoError(t, err)
		if due > 0 {
			assert.Equalf(t, models.BatchModeReview, batch.Mode, "trial %d has %d due entries", trial, due)
			assert.Len(t, batch.Words, min(due, 6))
		} else {
			assert.NotEqualf(t, models.BatchModeReview, batch.Mode, "trial %d has nothing due", trial)
		}
	}
}

func TestBuildQuiz_HoldsAcrossSeeds(t *testing.T) {
	words := catalogOf(9)

	for seed := int64(0); seed < 200; seed++ {
		target := words[seed%int64(len(words))]
		quiz := BuildQuiz(target, words, NewLockedRand(seed))

		require.Len(t, quiz.Options, QuizDistractors+1)
		correct := 0
		seen := make(map[uuid.UUID]bool)
		for _, opt := range quiz.Options {
			require.Falsef(t, seen[opt.ID], "seed %d repeats option %s", seed, opt.ID)
			seen[opt.ID] = true
			if opt.IsCorrect {
				correct++
				assert.Equal(t, target.ID, opt.ID)
			}
		}
		assert.Equalf(t, 1, correct, "seed %d", seed)
	}
}
