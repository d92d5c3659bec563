package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/notify"
	"github.com/spec-kit/bless-tracker/internal/repository"
)

// ErrNoUser is returned when a session is requested without a user.
var ErrNoUser = errors.New("session requires a user")

// Geocoder turns a coordinate into a place label. It never fails.
type Geocoder interface {
	Reverse(ctx context.Context, coord domain.Coordinate) string
}

// Session is the state owned by one signed-in user.
type Session struct {
	UserID      string
	Store       *ResidentStore
	Preferences *PreferenceManager

	geocoder Geocoder
}

// AddResidentAt pins a resident, looking up the address when none is given.
func (s *Session) AddResidentAt(ctx context.Context, coord domain.Coordinate, address string) (domain.Resident, *SyncResult) {
	if strings.TrimSpace(address) == "" && s.geocoder != nil {
		address = s.geocoder.Reverse(ctx, coord)
	}
	return s.Store.AddResident(ctx, coord, address)
}

// Dashboard derives the dashboard from the current collection.
func (s *Session) Dashboard() Dashboard {
	return BuildDashboard(s.Store.Residents())
}

func (s *Session) close(ctx context.Context) error {
	prefErr := s.Preferences.Close(ctx)
	_ = s.Store.Load(ctx, "")
	return errors.Join(prefErr, s.Store.Close(ctx))
}

// SessionDependencies bundles everything a session is built from.
type SessionDependencies struct {
	ResidentRepo       repository.ResidentRepository
	InteractionRepo    repository.InteractionRepository
	ProfileRepo        repository.ProfileRepository
	Cache              devicecache.Cache
	Notifier           notify.Notifier
	Geocoder           Geocoder
	Dispatcher         events.Dispatcher
	Logger             *zap.Logger
	Reminder           ReminderSettings
	RemoteWriteTimeout time.Duration
	Clock              func() time.Time
	NewID              func() string
	Pick               func(n int) int
}

// SessionManager hands out one Session per user.
type SessionManager struct {
	deps SessionDependencies

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager constructs the manager.
func NewSessionManager(deps SessionDependencies) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SessionManager{deps: deps, sessions: make(map[string]*Session)}
}

// Open returns userID's session, building and loading it on first use.
// Load failures degrade to an empty collection and are only logged.
func (m *SessionManager) Open(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if session, ok := m.Get(userID); ok {
		return session, nil
	}

	session := m.build(userID)
	if err := session.Store.Load(ctx, userID); err != nil {
		m.deps.Logger.Warn("session opened without residents", zap.String("user_id", userID), zap.Error(err))
	}
	session.Preferences.Load(ctx, userID)

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		_ = session.close(ctx)
		return existing, nil
	}
	m.sessions[userID] = session
	m.mu.Unlock()
	return session, nil
}

// Get returns an already open session.
func (m *SessionManager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[userID]
	return session, ok
}

// End tears down userID's session, if any.
func (m *SessionManager) End(ctx context.Context, userID string) error {
	m.mu.Lock()
	session, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return session.close(ctx)
}

// CloseAll ends every session.
func (m *SessionManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, session := range sessions {
		errs = append(errs, session.close(ctx))
	}
	return errors.Join(errs...)
}

func (m *SessionManager) build(userID string) *Session {
	logger := m.deps.Logger.With(zap.String("user_id", userID))
	store := NewResidentStore(ResidentStoreDependencies{
		ResidentRepo:       m.deps.ResidentRepo,
		InteractionRepo:    m.deps.InteractionRepo,
		Dispatcher:         m.deps.Dispatcher,
		Logger:             logger,
		Clock:              m.deps.Clock,
		NewID:              m.deps.NewID,
		RemoteWriteTimeout: m.deps.RemoteWriteTimeout,
	})
	prefs := NewPreferenceManager(PreferenceDependencies{
		ProfileRepo: m.deps.ProfileRepo,
		Cache:       m.deps.Cache,
		Notifier:    m.deps.Notifier,
		Dispatcher:  m.deps.Dispatcher,
		Logger:      logger,
		Residents:   store,
		Reminder:    m.deps.Reminder,
		Clock:       m.deps.Clock,
		Pick:        m.deps.Pick,
	})
	return &Session{UserID: userID, Store: store, Preferences: prefs, geocoder: m.deps.Geocoder}
}
