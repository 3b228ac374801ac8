package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calebhs/koinonia/internal/agenda"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/store"
)

// reminderLead is how far before an event's start time the reminder goes out.
const reminderLead = 60 * time.Minute

// Scheduler periodically resolves upcoming event occurrences and sends
// reminder notifications for any that start within the lead window.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	events   *store.EventStore
	logger   *slog.Logger
	loc      *time.Location
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a notification scheduler. All occurrence resolution
// happens in loc, the ministry's local time zone.
func NewScheduler(svc *Service, pushStore *store.PushStore, eventStore *store.EventStore, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		events:   eventStore,
		logger:   logger.With("component", "push-scheduler"),
		loc:      loc,
		interval: 60 * time.Second,
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
				s.tick(time.Now().In(s.loc))
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

func (s *Scheduler) tick(now time.Time) {
	defs, err := s.events.ListUpcoming(now)
	if err != nil {
		s.logger.Error("list upcoming events", "error", err)
		return
	}

	for i := range defs {
		def := &defs[i]

		occ, err := agenda.Resolve(def, now)
		if err != nil || occ == nil {
			continue
		}
		if !reminderDue(occ.Date, def.StartTime, now) {
			continue
		}

		refID := fmt.Sprintf("%d-%s", def.ID, occ.Date.Format("2006-01-02"))
		sent, err := s.push.WasSent(model.NotifTypeEventReminder, refID)
		if err != nil {
			s.logger.Error("check sent log", "error", err)
			continue
		}
		if sent {
			continue
		}

		subs, err := s.push.ListAll()
		if err != nil {
			s.logger.Error("list subscriptions", "error", err)
			continue
		}

		payload := Payload{
			Title: "Upcoming Event",
			Body:  fmt.Sprintf("%s starts at %s", def.Title, def.StartTime),
			URL:   "/agenda",
			Tag:   fmt.Sprintf("event-%d", def.ID),
		}

		for j := range subs {
			if err := s.service.Send(&subs[j], payload); err != nil {
				if errors.Is(err, ErrExpired) {
					s.push.DeleteByEndpoint(subs[j].Endpoint)
				} else {
					s.logger.Error("send event reminder", "event_id", def.ID, "error", err)
				}
			}
		}

		if err := s.push.MarkSent(model.NotifTypeEventReminder, refID); err != nil {
			s.logger.Error("mark sent", "error", err)
		}
	}
}

// reminderDue reports whether an occurrence on date with the given "HH:MM"
// start time begins within the lead window measured from now.
func reminderDue(date time.Time, startTime string, now time.Time) bool {
	clock, err := time.Parse("15:04", startTime)
	if err != nil {
		return false
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	until := start.Sub(now)
	return until > 0 && until <= reminderLead
}

// NotifyPrivateMessage pushes a notification to every device the recipient
// has registered. Called from the message handler, not from the ticker.
func (s *Scheduler) NotifyPrivateMessage(recipientID int64, senderName string) {
	subs, err := s.push.ListByMember(recipientID)
	if err != nil {
		s.logger.Error("list recipient subscriptions", "error", err)
		return
	}

	payload := Payload{
		Title: "New Message",
		Body:  fmt.Sprintf("%s sent you a message", senderName),
		URL:   "/messages",
		Tag:   "private-message",
	}

	for i := range subs {
		if err := s.service.Send(&subs[i], payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(subs[i].Endpoint)
			} else {
				s.logger.Error("send message notification", "error", err)
			}
		}
	}
}
