package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

// MemoryStore keeps profiles, residents and interactions in process memory.
// It honors the same contract as the Postgres repositories, including the
// interactions cascade on resident deletion, and backs the service when no
// database is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]domain.Profile
	residents    map[string]memoryResident
	interactions map[string][]domain.Interaction
	seq          int64
}

type memoryResident struct {
	ownerID  string
	resident domain.Resident
	seq      int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     make(map[string]domain.Profile),
		residents:    make(map[string]memoryResident),
		interactions: make(map[string][]domain.Interaction),
	}
}

// Residents exposes the store as a ResidentRepository.
func (m *MemoryStore) Residents() ResidentRepository { return memoryResidents{m} }

// Interactions exposes the store as an InteractionRepository.
func (m *MemoryStore) Interactions() InteractionRepository { return memoryInteractions{m} }

// Profiles exposes the store as a ProfileRepository.
func (m *MemoryStore) Profiles() ProfileRepository { return memoryProfiles{m} }

type memoryResidents struct{ m *MemoryStore }

func (r memoryResidents) ListByOwner(_ context.Context, ownerID string) ([]domain.Resident, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	owned := make([]memoryResident, 0)
	for _, row := range r.m.residents {
		if row.ownerID == ownerID {
			owned = append(owned, row)
		}
	}
	slices.SortFunc(owned, func(a, b memoryResident) int {
		if c := b.resident.CreatedAt.Compare(a.resident.CreatedAt); c != 0 {
			return c
		}
		return int(b.seq - a.seq)
	})

	result := make([]domain.Resident, 0, len(owned))
	for _, row := range owned {
		resident := row.resident.Clone()
		history := r.m.interactions[resident.ID]
		resident.Interactions = make([]domain.Interaction, len(history))
		copy(resident.Interactions, history)
		slices.SortStableFunc(resident.Interactions, func(a, b domain.Interaction) int {
			return b.Timestamp.Compare(a.Timestamp)
		})
		result = append(result, resident.Clone())
	}
	return result, nil
}

func (r memoryResidents) Create(_ context.Context, ownerID string, resident *domain.Resident) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, exists := r.m.residents[resident.ID]; exists {
		return fmt.Errorf("resident %s already exists", resident.ID)
	}
	row := resident.Clone()
	row.Interactions = nil
	r.m.seq++
	r.m.residents[resident.ID] = memoryResident{ownerID: ownerID, resident: row, seq: r.m.seq}
	return nil
}

func (r memoryResidents) UpdateFields(_ context.Context, id string, fields []domain.FieldValue) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	row, ok := r.m.residents[id]
	if !ok {
		return ErrNotFound
	}
	for _, field := range fields {
		if err := assignField(&row.resident, field); err != nil {
			return err
		}
	}
	r.m.residents[id] = row
	return nil
}

func (r memoryResidents) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.residents[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.residents, id)
	delete(r.m.interactions, id)
	return nil
}

func assignField(resident *domain.Resident, field domain.FieldValue) error {
	if _, err := ResidentColumn(field.Attribute); err != nil {
		return err
	}
	var ok bool
	switch field.Attribute {
	case domain.AttributeName:
		resident.Name, ok = field.Value.(string)
	case domain.AttributeAddress:
		resident.Address, ok = field.Value.(string)
	case domain.AttributePrayerRequests:
		var prayer string
		prayer, ok = field.Value.(string)
		resident.PrayerRequests = &prayer
	case domain.AttributeBlessStatus:
		resident.CurrentBlessStatus, ok = field.Value.(domain.BlessStatus)
	case domain.AttributeLastInteraction:
		resident.LastInteraction, ok = field.Value.(time.Time)
	}
	if !ok {
		return fmt.Errorf("invalid value %T for resident attribute %d", field.Value, field.Attribute)
	}
	return nil
}

type memoryInteractions struct{ m *MemoryStore }

func (r memoryInteractions) Create(_ context.Context, residentID string, interaction *domain.Interaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.residents[residentID]; !ok {
		return fmt.Errorf("insert interaction: resident %s: %w", residentID, ErrNotFound)
	}
	r.m.interactions[residentID] = append(r.m.interactions[residentID], *interaction)
	return nil
}

type memoryProfiles struct{ m *MemoryStore }

func (r memoryProfiles) Create(_ context.Context, profile *domain.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.profiles {
		if existing.Email == profile.Email {
			return fmt.Errorf("profile email %q already exists", profile.Email)
		}
	}
	profile.ID = uuid.NewString()
	profile.CreatedAt = time.Now().UTC()
	r.m.profiles[profile.ID] = *profile
	return nil
}

func (r memoryProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	profile, ok := r.m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

func (r memoryProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, profile := range r.m.profiles {
		if profile.Email == email {
			found := profile
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryProfiles) SetNotificationsEnabled(_ context.Context, id string, enabled bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	profile, ok := r.m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	profile.NotificationsEnabled = enabled
	r.m.profiles[id] = profile
	return nil
}
