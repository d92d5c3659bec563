package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/notify"
	"github.com/spec-kit/bless-tracker/internal/repository"
)

// PreferenceManager owns the "reminders enabled" flag. The flag lives in
// the device cache and on the profile record; the profile wins on load.
type PreferenceManager struct {
	profiles   repository.ProfileRepository
	cache      devicecache.Cache
	notifier   notify.Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	scheduler  *ReminderScheduler

	// toggleMu serializes Load, Toggle and Close.
	toggleMu sync.Mutex
	userID   string
	device   *devicecache.Scoped
	enabled  atomic.Bool

	inflight sync.WaitGroup
}

// PreferenceDependencies bundles collaborators for the manager.
type PreferenceDependencies struct {
	ProfileRepo repository.ProfileRepository
	Cache       devicecache.Cache
	Notifier    notify.Notifier
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Residents   ResidentSource
	Reminder    ReminderSettings
	Clock       func() time.Time
	Pick        func(n int) int
}

// NewPreferenceManager builds a disabled manager with its reminder scheduler.
func NewPreferenceManager(deps PreferenceDependencies) *PreferenceManager {
	m := &PreferenceManager{
		profiles:   deps.ProfileRepo,
		cache:      deps.Cache,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.cache == nil {
		m.cache = devicecache.NewMemoryCache()
	}
	m.device = devicecache.NewScoped(m.cache, "")
	m.scheduler = NewReminderScheduler(ReminderDependencies{
		Source:     deps.Residents,
		Notifier:   deps.Notifier,
		Dispatcher: deps.Dispatcher,
		Logger:     m.logger,
		Settings:   deps.Reminder,
		Enabled:    m.Enabled,
		Clock:      deps.Clock,
		Pick:       deps.Pick,
	})
	m.scheduler.Bind("", m.device)
	return m
}

// Enabled reports the current flag.
func (m *PreferenceManager) Enabled() bool {
	return m.enabled.Load()
}

// Scheduler exposes the reminder scheduler.
func (m *PreferenceManager) Scheduler() *ReminderScheduler {
	return m.scheduler
}

// Load adopts userID's preference: the profile record if it can be read,
// else the device cache, else disabled. The scheduler runs iff enabled.
func (m *PreferenceManager) Load(ctx context.Context, userID string) bool {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()

	m.scheduler.Stop()
	m.userID = userID
	m.device = devicecache.NewScoped(m.cache, userID)
	m.scheduler.Bind(userID, m.device)

	enabled, fromProfile := false, false
	if userID != "" && m.profiles != nil {
		profile, err := m.profiles.GetByID(ctx, userID)
		if err != nil {
			m.logger.Warn("load notification preference failed, using device cache",
				zap.String("user_id", userID), zap.Error(err))
		} else {
			enabled, fromProfile = profile.NotificationsEnabled, true
		}
	}

	if fromProfile {
		if err := m.device.SetBool(ctx, devicecache.KeyNotificationsEnabled, enabled); err != nil {
			m.logger.Warn("mirror notification preference failed", zap.String("user_id", userID), zap.Error(err))
		}
	} else {
		cached, ok, err := m.device.GetBool(ctx, devicecache.KeyNotificationsEnabled)
		if err != nil {
			m.logger.Warn("read cached notification preference failed", zap.String("user_id", userID), zap.Error(err))
		}
		enabled = ok && cached
	}

	m.enabled.Store(enabled)
	if enabled {
		m.scheduler.Start()
	}
	return enabled
}

// Toggle flips the flag. Enabling needs notification permission; without it
// the flag stays off and the result reports nothing applied.
func (m *PreferenceManager) Toggle(ctx context.Context) (bool, *SyncResult) {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()

	if m.enabled.Load() {
		m.enabled.Store(false)
		m.scheduler.Stop()
		m.storeLocal(ctx, false)
		return false, m.persistRemote(ctx, false)
	}

	if perm := m.notifier.RequestPermission(ctx, m.userID); perm != notify.PermissionGranted {
		m.logger.Info("notification permission not granted",
			zap.String("user_id", m.userID), zap.String("permission", string(perm)))
		return false, skippedResult(false)
	}

	m.enabled.Store(true)
	m.storeLocal(ctx, true)
	result := m.persistRemote(ctx, true)
	if err := m.notifier.Notify(ctx, notify.Message{UserID: m.userID, Title: WelcomeTitle, Body: WelcomeBody}); err != nil {
		m.logger.Warn("send welcome notification failed", zap.String("user_id", m.userID), zap.Error(err))
	}
	m.scheduler.Start()
	return true, result
}

// Close stops the scheduler and waits for outstanding profile writes.
func (m *PreferenceManager) Close(ctx context.Context) error {
	m.toggleMu.Lock()
	m.scheduler.Stop()
	m.toggleMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *PreferenceManager) storeLocal(ctx context.Context, enabled bool) {
	if err := m.device.SetBool(ctx, devicecache.KeyNotificationsEnabled, enabled); err != nil {
		m.logger.Warn("store notification preference failed", zap.String("user_id", m.userID), zap.Error(err))
	}
}

// persistRemote must be called with toggleMu held.
func (m *PreferenceManager) persistRemote(ctx context.Context, enabled bool) *SyncResult {
	userID := m.userID
	if userID == "" || m.profiles == nil {
		return skippedResult(true)
	}

	result := newPendingResult(true)
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		writeCtx := context.WithoutCancel(ctx)

		err := m.profiles.SetNotificationsEnabled(writeCtx, userID, enabled)
		payload := events.RemoteWritePayload{Outcome: events.SyncConfirmed, Step: "update_profile"}
		if err != nil {
			payload.Outcome = events.SyncFailed
			payload.Error = err.Error()
			m.logger.Error("remote preference write failed",
				zap.String("user_id", userID), zap.Bool("enabled", enabled), zap.Error(err))
		}
		if m.dispatcher != nil {
			evt := events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventPreferenceChanged,
				UserID:    userID,
				Timestamp: time.Now().UTC(),
				Payload:   payload,
			}
			if perr := m.dispatcher.Publish(writeCtx, evt); perr != nil {
				m.logger.Warn("event handler failed", zap.String("event", string(evt.Type)), zap.Error(perr))
			}
		}
		result.settle(err)
	}()
	return result
}
