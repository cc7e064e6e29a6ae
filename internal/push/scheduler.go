package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmorneau/carebell/internal/schedule"
	"github.com/dmorneau/carebell/internal/store"
)

// Scheduler wakes once a minute and notifies account owners whose
// reminders are firing, evaluated in each parent's timezone. The
// telephony side makes the actual call or text; this is the caregiver's
// heads-up in the browser.
type Scheduler struct {
	mu        sync.RWMutex
	service   *Service
	push      *store.PushStore
	parents   *store.ParentStore
	reminders *store.ReminderStore
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewScheduler(svc *Service, pushStore *store.PushStore, parentStore *store.ParentStore, reminderStore *store.ReminderStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:   svc,
		push:      pushStore,
		parents:   parentStore,
		reminders: reminderStore,
		logger:    logger,
		interval:  60 * time.Second,
		now:       time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	if !s.service.Configured() {
		return
	}

	parents, err := s.parents.ListAll()
	if err != nil {
		s.logger.Error("push scheduler: list parents", "error", err)
		return
	}

	for _, p := range parents {
		loc, err := time.LoadLocation(p.Timezone)
		if err != nil {
			s.logger.Warn("push scheduler: bad timezone", "parent_id", p.ID, "timezone", p.Timezone)
			continue
		}
		local := s.now().In(loc)

		reminders, err := s.reminders.ListByParent(p.ID)
		if err != nil {
			s.logger.Error("push scheduler: list reminders", "parent_id", p.ID, "error", err)
			continue
		}

		for _, r := range reminders {
			if !r.Days()[int(local.Weekday())] {
				continue
			}
			if schedule.Minutes(r.Time) != local.Hour()*60+local.Minute() {
				continue
			}

			fresh, err := s.push.MarkSent(r.ID, local.Format("2006-01-02"))
			if err != nil {
				s.logger.Error("push scheduler: mark sent", "reminder_id", r.ID, "error", err)
				continue
			}
			if !fresh {
				continue
			}

			s.notify(p.UserID, p.Name, r.Name, r.DeliveryMethod)
		}
	}
}

func (s *Scheduler) notify(userID int64, parentName, reminderName, deliveryMethod string) {
	subs, err := s.push.ListByUser(userID)
	if err != nil {
		s.logger.Error("push scheduler: list subscriptions", "user_id", userID, "error", err)
		return
	}

	payload := Payload{
		Title: "Reminder for " + parentName,
		Body:  reminderName + " (" + deliveryMethod + ")",
		URL:   "/reminders",
		Tag:   "reminder",
	}

	for i := range subs {
		err := s.service.Send(&subs[i], payload)
		if errors.Is(err, ErrExpired) {
			if err := s.push.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				s.logger.Error("push scheduler: drop expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			s.logger.Warn("push scheduler: send", "user_id", userID, "error", err)
		}
	}
}
