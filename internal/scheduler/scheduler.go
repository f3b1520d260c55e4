package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/recall/internal/config"
	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

// Default notification window, in UTC hours
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Notifier delivers due-item reminders to a learner
type Notifier interface {
	SendReminder(ctx context.Context, learner models.Learner, count int) error
}

type learnerRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Learner, error)
	ListForNotification(ctx context.Context, hour int) ([]models.Learner, error)
}

type dueCounter interface {
	DueCount(ctx context.Context, learnerID, collectionID int64) (int, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	learners  learnerRepo
	due       dueCounter
	cfg       config.ReminderConfig
	clock     sr.Clock
	log       *slog.Logger
}

// New creates a new scheduler instance
func New(log *slog.Logger, cfg config.ReminderConfig, learners learnerRepo, due dueCounter, notifier Notifier) *Scheduler {
	if cfg.Every <= 0 {
		cfg.Every = time.Hour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		learners:  learners,
		due:       due,
		cfg:       cfg,
		clock:     sr.SystemClock{},
		log:       log.With("component", "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.cfg.Every).Do(func() {
		s.checkAndSendReminders(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started",
		slog.Duration("every", s.cfg.Every),
		slog.Int("start_hour", s.cfg.StartHour),
		slog.Int("end_hour", s.cfg.EndHour),
	)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// inWindow reports whether hour falls inside the notification window, both ends included.
func (s *Scheduler) inWindow(hour int) bool {
	return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
}

// checkAndSendReminders notifies learners whose reminder hour is now and returns how many were notified.
func (s *Scheduler) checkAndSendReminders(ctx context.Context) int {
	hour := s.clock.Now().Hour()
	if !s.inWindow(hour) {
		s.log.Debug("outside notification hours, skipping reminders",
			slog.Int("hour", hour),
			slog.Int("start_hour", s.cfg.StartHour),
			slog.Int("end_hour", s.cfg.EndHour),
		)
		return 0
	}

	learners, err := s.learners.ListForNotification(ctx, hour)
	if err != nil {
		s.log.Error("get learners for notification", slog.String("error", err.Error()))
		return 0
	}

	sent := 0
	for _, l := range learners {
		ok, err := s.remind(ctx, l, true)
		if err != nil {
			s.log.Error("send reminder",
				slog.Int64("learner_id", l.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent
}

// RunManualCheck forces a reminder check for one learner, ignoring the notification window.
func (s *Scheduler) RunManualCheck(ctx context.Context, learnerID int64) error {
	l, err := s.learners.GetByID(ctx, learnerID)
	if err != nil {
		return err
	}
	_, err = s.remind(ctx, *l, false)
	return err
}

func (s *Scheduler) remind(ctx context.Context, l models.Learner, capDaily bool) (bool, error) {
	count, err := s.due.DueCount(ctx, l.ID, 0)
	if err != nil {
		return false, fmt.Errorf("count due items: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	// Don't announce more than the learner's daily preference
	if capDaily && l.ItemsPerDay > 0 && count > l.ItemsPerDay {
		count = l.ItemsPerDay
	}

	if err := s.notifier.SendReminder(ctx, l, count); err != nil {
		return false, err
	}
	return true, nil
}
