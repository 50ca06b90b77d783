package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron"

	"github.com/naparnik/naparnik-go"
)

type reminderNotifier interface {
	RenderReminder(ctx context.Context, userID string, dueWords, duePhrases int) error
}

// Reminders periodically tells users with due review items how many are waiting.
type Reminders struct {
	scheduler *gocron.Scheduler
	repo      naparnik.ReviewRepo
	notifier  reminderNotifier
	l         *log.Logger
	now       func() time.Time
}

func NewReminders(repo naparnik.ReviewRepo, notifier reminderNotifier, logger *log.Logger) *Reminders {
	return &Reminders{
		scheduler: gocron.NewScheduler(time.UTC),
		repo:      repo,
		notifier:  notifier,
		l:         logger,
		now:       time.Now,
	}
}

// Start schedules the check every interval without blocking. The first check
// runs one interval after start.
func (r *Reminders) Start(ctx context.Context, interval time.Duration) error {
	_, err := r.scheduler.Every(interval).WaitForSchedule().Do(func() {
		timeout, c := context.WithTimeout(ctx, time.Minute)
		defer c()
		r.remindAll(timeout)
	})
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

func (r *Reminders) Stop() {
	r.scheduler.Stop()
}

func (r *Reminders) remindAll(ctx context.Context) {
	users, err := r.repo.ListReviewUsers(ctx)
	if err != nil {
		r.l.Error("failed to list review users", "err", err)
		return
	}
	var sent int
	for _, uid := range users {
		if ctx.Err() != nil {
			return
		}
		ok, err := r.remind(ctx, uid)
		if err != nil {
			r.l.Warn("failed to send reminder", "uid", uid, "err", err)
			continue
		}
		if ok {
			sent++
		}
	}
	r.l.Debug("sent review reminders", "users", len(users), "sent", sent)
}

// remind reports whether userID had anything due.
func (r *Reminders) remind(ctx context.Context, userID string) (bool, error) {
	now := r.now()
	words, err := r.repo.ListDue(ctx, userID, naparnik.WordKind, now)
	if err != nil {
		return false, err
	}
	phrases, err := r.repo.ListDue(ctx, userID, naparnik.PhraseKind, now)
	if err != nil {
		return false, err
	}
	if len(words) == 0 && len(phrases) == 0 {
		return false, nil
	}
	return true, r.notifier.RenderReminder(ctx, userID, len(words), len(phrases))
}
