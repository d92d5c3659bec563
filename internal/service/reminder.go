package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/notify"
)

const (
	ReminderTitle = "Morning Prayer Focus"
	WelcomeTitle  = "Prayers Activated"
	WelcomeBody   = "We'll remind you to pray for a neighbor each morning at 8am."

	reminderDateLayout = "2006-01-02"
)

// ReminderBody names the resident a reminder points at.
func ReminderBody(name string) string {
	return fmt.Sprintf("Lift up %s today.", name)
}

// ResidentSource provides the residents a reminder can pick from.
type ResidentSource interface {
	Residents() []domain.Resident
}

// ReminderSettings places the daily reminder.
type ReminderSettings struct {
	Hour          int
	Location      *time.Location
	RetryInterval time.Duration
}

// NextReminderAt returns when the reminder should next fire. now must be in
// the reminder time zone. Inside the reminder hour the answer is now unless
// a reminder already went out today.
func NextReminderAt(now time.Time, hour int, firedToday bool) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	switch {
	case firedToday:
		return tomorrow
	case now.Before(today):
		return today
	case now.Before(today.Add(time.Hour)):
		return now
	default:
		return tomorrow
	}
}

// ReminderScheduler sends at most one reminder per calendar day. It sleeps
// until the next reminder hour instead of polling.
type ReminderScheduler struct {
	source     ResidentSource
	notifier   notify.Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	settings   ReminderSettings
	enabled    func() bool
	clock      func() time.Time
	pick       func(n int) int

	bindMu sync.RWMutex
	userID string
	cache  *devicecache.Scoped

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// ReminderDependencies bundles collaborators for the scheduler.
type ReminderDependencies struct {
	Source     ResidentSource
	Notifier   notify.Notifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Settings   ReminderSettings
	// Enabled is consulted at fire time.
	Enabled func() bool
	Clock   func() time.Time
	// Pick returns an index in [0, n).
	Pick func(n int) int
}

// NewReminderScheduler builds a stopped scheduler.
func NewReminderScheduler(deps ReminderDependencies) *ReminderScheduler {
	s := &ReminderScheduler{
		source:     deps.Source,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		settings:   deps.Settings,
		enabled:    deps.Enabled,
		clock:      deps.Clock,
		pick:       deps.Pick,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.settings.Location == nil {
		s.settings.Location = time.Local
	}
	if s.settings.RetryInterval <= 0 {
		s.settings.RetryInterval = time.Minute
	}
	if s.enabled == nil {
		s.enabled = func() bool { return true }
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.pick == nil {
		s.pick = rand.Intn
	}
	return s
}

// Bind sets the user and device cache reminders are recorded against.
func (s *ReminderScheduler) Bind(userID string, cache *devicecache.Scoped) {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	s.userID = userID
	s.cache = cache
}

func (s *ReminderScheduler) binding() (string, *devicecache.Scoped) {
	s.bindMu.RLock()
	defer s.bindMu.RUnlock()
	return s.userID, s.cache
}

// Start launches the timer loop. Calling Start on a running scheduler is a
// no-op.
func (s *ReminderScheduler) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop cancels the pending timer and waits for the loop to exit.
func (s *ReminderScheduler) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (s *ReminderScheduler) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

func (s *ReminderScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		next := s.Tick(ctx)
		wait := next.Sub(s.clock())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Tick fires the reminder if one is due and returns the next wake-up time.
func (s *ReminderScheduler) Tick(ctx context.Context) time.Time {
	now := s.clock().In(s.settings.Location)
	today := now.Format(reminderDateLayout)
	userID, cache := s.binding()

	firedToday := false
	if cache != nil {
		last, ok, err := cache.Get(ctx, devicecache.KeyLastReminderDate)
		if err != nil {
			s.logger.Warn("read last reminder date failed", zap.String("user_id", userID), zap.Error(err))
		}
		firedToday = ok && last == today
	}

	due := NextReminderAt(now, s.settings.Hour, firedToday)
	if due.After(now) {
		return due
	}
	if !s.enabled() {
		return NextReminderAt(now, s.settings.Hour, true)
	}

	ranked := StalenessRanking(s.source.Residents(), FocusListSize)
	if len(ranked) == 0 {
		retry := now.Add(s.settings.RetryInterval)
		if NextReminderAt(retry, s.settings.Hour, false).Equal(retry) {
			return retry
		}
		return NextReminderAt(now, s.settings.Hour, true)
	}

	chosen := ranked[s.pick(len(ranked))]
	err := s.notifier.Notify(ctx, notify.Message{
		UserID: userID,
		Title:  ReminderTitle,
		Body:   ReminderBody(chosen.Name),
	})
	if err != nil {
		s.logger.Error("send reminder failed",
			zap.String("user_id", userID),
			zap.String("resident_id", chosen.ID),
			zap.Error(err),
		)
	}
	if cache != nil {
		if serr := cache.Set(ctx, devicecache.KeyLastReminderDate, today); serr != nil {
			s.logger.Warn("store last reminder date failed", zap.String("user_id", userID), zap.Error(serr))
		}
	}
	s.publish(ctx, userID, chosen, err)
	return NextReminderAt(now, s.settings.Hour, true)
}

func (s *ReminderScheduler) publish(ctx context.Context, userID string, chosen domain.Resident, sendErr error) {
	if s.dispatcher == nil {
		return
	}
	payload := events.ReminderPayload{
		ResidentID:   chosen.ID,
		ResidentName: chosen.Name,
		Delivered:    sendErr == nil,
	}
	if sendErr != nil {
		payload.Error = sendErr.Error()
	}
	evt := events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventReminderDispatched,
		UserID:     userID,
		ResidentID: chosen.ID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
	if err := s.dispatcher.Publish(ctx, evt); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(evt.Type)), zap.Error(err))
	}
}
