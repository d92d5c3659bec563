// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/repository"
)

// CallLog records repository calls by name.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *CallLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

// Calls returns the recorded call names in order.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Count returns how often name was called.
func (l *CallLog) Count(name string) int {
	n := 0
	for _, call := range l.Calls() {
		if call == name {
			n++
		}
	}
	return n
}

// Gate blocks callers until Open is called. A nil Gate never blocks.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Open releases every waiter.
func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}

func (g *Gate) wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Residents wraps a ResidentRepository with injectable failures.
type Residents struct {
	repository.ResidentRepository
	CallLog

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
	Gate      *Gate
}

func (r *Residents) ListByOwner(ctx context.Context, ownerID string) ([]domain.Resident, error) {
	r.add("list")
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	return r.ResidentRepository.ListByOwner(ctx, ownerID)
}

func (r *Residents) Create(ctx context.Context, ownerID string, resident *domain.Resident) error {
	r.add("create")
	if err := r.Gate.wait(ctx); err != nil {
		return err
	}
	if r.CreateErr != nil {
		return r.CreateErr
	}
	return r.ResidentRepository.Create(ctx, ownerID, resident)
}

func (r *Residents) UpdateFields(ctx context.Context, id string, fields []domain.FieldValue) error {
	r.add("update")
	if err := r.Gate.wait(ctx); err != nil {
		return err
	}
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	return r.ResidentRepository.UpdateFields(ctx, id, fields)
}

func (r *Residents) Delete(ctx context.Context, id string) error {
	r.add("delete")
	if err := r.Gate.wait(ctx); err != nil {
		return err
	}
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	return r.ResidentRepository.Delete(ctx, id)
}

// Interactions wraps an InteractionRepository with an injectable failure.
type Interactions struct {
	repository.InteractionRepository
	CallLog

	CreateErr error
}

func (r *Interactions) Create(ctx context.Context, residentID string, interaction *domain.Interaction) error {
	r.add("create")
	if r.CreateErr != nil {
		return r.CreateErr
	}
	return r.InteractionRepository.Create(ctx, residentID, interaction)
}

// Profiles wraps a ProfileRepository with injectable failures.
type Profiles struct {
	repository.ProfileRepository
	CallLog

	GetErr error
	SetErr error
}

func (r *Profiles) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.add("get")
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	return r.ProfileRepository.GetByID(ctx, id)
}

func (r *Profiles) SetNotificationsEnabled(ctx context.Context, id string, enabled bool) error {
	r.add("set_notifications")
	if r.SetErr != nil {
		return r.SetErr
	}
	return r.ProfileRepository.SetNotificationsEnabled(ctx, id, enabled)
}

// SeedProfile inserts a profile and returns its id.
func SeedProfile(ctx context.Context, profiles repository.ProfileRepository, email string, notifications bool) (string, error) {
	profile := &domain.Profile{Email: email, PasswordHash: "x", NotificationsEnabled: notifications}
	if err := profiles.Create(ctx, profile); err != nil {
		return "", err
	}
	return profile.ID, nil
}
