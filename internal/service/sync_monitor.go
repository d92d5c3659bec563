package service

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/observability"
)

// recentFailureLimit bounds the failures kept per user.
const recentFailureLimit = 20

// SyncMonitor turns settled remote writes and reminders into metrics, logs
// and a short per-user history of failed writes.
type SyncMonitor struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu       sync.Mutex
	failures map[string][]events.Event
}

// NewSyncMonitor creates the monitor.
func NewSyncMonitor(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *SyncMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncMonitor{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		failures:   make(map[string][]events.Event),
	}
}

// RegisterHandlers subscribes to events.
func (m *SyncMonitor) RegisterHandlers() {
	if m.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventResidentCreated,
		events.EventResidentUpdated,
		events.EventResidentDeleted,
		events.EventInteractionLogged,
		events.EventPreferenceChanged,
	} {
		m.dispatcher.Subscribe(eventType, m.handleRemoteWrite)
	}
	m.dispatcher.Subscribe(events.EventReminderDispatched, m.handleReminder)
}

func (m *SyncMonitor) handleRemoteWrite(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RemoteWritePayload)
	if !ok {
		return nil
	}
	m.metrics.RecordRemoteWrite(string(event.Type), string(payload.Outcome))
	if payload.Outcome != events.SyncFailed {
		return nil
	}

	m.logger.Warn("remote sync incomplete",
		zap.String("event", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("resident_id", event.ResidentID),
		zap.String("step", payload.Step),
		zap.String("error", payload.Error),
	)
	m.mu.Lock()
	history := append(m.failures[event.UserID], event)
	if len(history) > recentFailureLimit {
		history = history[len(history)-recentFailureLimit:]
	}
	m.failures[event.UserID] = history
	m.mu.Unlock()
	return nil
}

func (m *SyncMonitor) handleReminder(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReminderPayload)
	if !ok {
		return nil
	}
	outcome := "sent"
	if !payload.Delivered {
		outcome = "failed"
	}
	m.metrics.RecordReminder(outcome)
	m.logger.Info("daily reminder",
		zap.String("user_id", event.UserID),
		zap.String("resident_id", payload.ResidentID),
		zap.String("outcome", outcome),
	)
	return nil
}

// RecentFailures returns userID's failed writes, newest first.
func (m *SyncMonitor) RecentFailures(userID string) []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.failures[userID])
	slices.Reverse(out)
	if out == nil {
		out = []events.Event{}
	}
	return out
}

// Forget drops userID's failure history.
func (m *SyncMonitor) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, userID)
}
