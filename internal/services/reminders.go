package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lexora-backend/internal/logger"
	"lexora-backend/internal/mastery"
	"lexora-backend/internal/models"
)

const (
	reminderCooldown   = 12 * time.Hour
	reminderLockKeyFmt = "review_due_sent:%s"
)

type dueLister interface {
	ListLearnersWithDue(ctx context.Context, now time.Time) ([]models.DueSummary, error)
}

type cooldownStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// ReminderScheduler periodically tells connected learners that reviews are due.
// A learner is reminded at most once per cooldown window.
type ReminderScheduler struct {
	ledger    dueLister
	locks     cooldownStore
	publisher Publisher
	clock     mastery.Clock
	interval  time.Duration
	log       *logger.Logger
	scheduler *gocron.Scheduler
}

func NewReminderScheduler(ledger dueLister, locks cooldownStore, publisher Publisher, clock mastery.Clock, interval time.Duration, log *logger.Logger) *ReminderScheduler {
	if clock == nil {
		clock = mastery.SystemClock{}
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderScheduler{
		ledger:    ledger,
		locks:     locks,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		log:       log.With("component", "ReminderScheduler"),
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

func (s *ReminderScheduler) Start() error {
	if s.ledger == nil || s.publisher == nil {
		return nil
	}
	// gocron runs the job immediately on start and then every interval.
	if _, err := s.scheduler.Every(s.interval).Do(func() {
		s.SendReminders(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started", "interval", s.interval.String())
	return nil
}

func (s *ReminderScheduler) Stop() {
	s.scheduler.Stop()
}

// SendReminders runs one reminder pass and returns how many learners were notified.
func (s *ReminderScheduler) SendReminders(ctx context.Context) int {
	due, err := s.ledger.ListLearnersWithDue(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("failed to list learners with due reviews", "error", err)
		return 0
	}

	sent := 0
	for _, d := range due {
		if d.DueCount <= 0 || !s.acquire(ctx, d.UserID) {
			continue
		}
		s.publisher.PublishUpdate(ctx, d.UserID, models.WSMessage{
			Type:    models.WSTypeReviewDue,
			Payload: models.ReviewDue{DueCount: d.DueCount},
		})
		sent++
	}
	if sent > 0 {
		s.log.Info("review reminders sent", "count", sent)
	}
	return sent
}

// acquire claims the learner's cooldown slot. Without a lock store every
// learner is reminded on each pass.
func (s *ReminderScheduler) acquire(ctx context.Context, userID uuid.UUID) bool {
	if s.locks == nil {
		return true
	}
	ok, err := s.locks.SetNX(ctx, fmt.Sprintf(reminderLockKeyFmt, userID), s.clock.Now().Unix(), reminderCooldown).Result()
	if err != nil {
		s.log.Warn("reminder cooldown check failed", "user_id", userID, "error", err)
		return false
	}
	return ok
}
