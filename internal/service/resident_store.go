package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/repository"
)

// ErrInvalidInteraction is returned by LogInteraction for malformed entries.
var ErrInvalidInteraction = errors.New("invalid interaction")

// ResidentStore owns one user's resident collection. Mutations apply to the
// local collection under the lock and return immediately; the matching
// remote write runs in the background and is reported through SyncResult.
type ResidentStore struct {
	residents    repository.ResidentRepository
	interactions repository.InteractionRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	clock        func() time.Time
	newID        func() string
	writeTimeout time.Duration

	mu         sync.RWMutex
	owner      string
	collection []domain.Resident

	inflight sync.WaitGroup
}

// ResidentStoreDependencies bundles collaborators for the store.
type ResidentStoreDependencies struct {
	ResidentRepo       repository.ResidentRepository
	InteractionRepo    repository.InteractionRepository
	Dispatcher         events.Dispatcher
	Logger             *zap.Logger
	Clock              func() time.Time
	NewID              func() string
	RemoteWriteTimeout time.Duration
}

// NewResidentStore constructs an empty store with no owner.
func NewResidentStore(deps ResidentStoreDependencies) *ResidentStore {
	store := &ResidentStore{
		residents:    deps.ResidentRepo,
		interactions: deps.InteractionRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		clock:        deps.Clock,
		newID:        deps.NewID,
		writeTimeout: deps.RemoteWriteTimeout,
		collection:   []domain.Resident{},
	}
	if store.logger == nil {
		store.logger = zap.NewNop()
	}
	if store.clock == nil {
		store.clock = time.Now
	}
	if store.newID == nil {
		store.newID = uuid.NewString
	}
	return store
}

// Load replaces the collection with userID's residents. An empty userID
// clears it. On a failed fetch the collection is left as it was.
func (s *ResidentStore) Load(ctx context.Context, userID string) error {
	if userID == "" {
		s.mu.Lock()
		s.owner = ""
		s.collection = []domain.Resident{}
		s.mu.Unlock()
		return nil
	}

	loaded, err := s.residents.ListByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("load residents failed", zap.String("user_id", userID), zap.Error(err))
		s.mu.Lock()
		s.owner = userID
		s.mu.Unlock()
		return fmt.Errorf("load residents: %w", err)
	}
	for i := range loaded {
		slices.SortStableFunc(loaded[i].Interactions, func(a, b domain.Interaction) int {
			return b.Timestamp.Compare(a.Timestamp)
		})
	}

	s.mu.Lock()
	s.owner = userID
	s.collection = loaded
	s.mu.Unlock()
	return nil
}

// AddResident pins a new resident at coord and puts it at the front of the
// collection.
func (s *ResidentStore) AddResident(ctx context.Context, coord domain.Coordinate, address string) (domain.Resident, *SyncResult) {
	now := s.now()
	status := domain.BlessStatusPrayer
	note := domain.CreationNote
	creation := domain.Interaction{
		ID:        s.newID(),
		Kind:      domain.InteractionCreation,
		Content:   &note,
		Status:    &status,
		Timestamp: now,
	}
	resident := domain.Resident{
		ID:                 s.newID(),
		Coordinate:         coord,
		Address:            address,
		Name:               domain.DefaultResidentName,
		CurrentBlessStatus: domain.BlessStatusPrayer,
		Interactions:       []domain.Interaction{creation},
		LastInteraction:    now,
		CreatedAt:          now,
	}

	s.mu.Lock()
	s.collection = slices.Insert(s.collection, 0, resident)
	owner := s.owner
	s.mu.Unlock()

	created := resident.Clone()
	if owner == "" {
		return created, skippedResult(true)
	}

	row := resident.Clone()
	return created, s.persist(ctx, events.EventResidentCreated, owner, resident.ID, func(ctx context.Context) error {
		if err := s.residents.Create(ctx, owner, &row); err != nil {
			return &writeStepError{step: "insert_resident", err: err}
		}
		if err := s.interactions.Create(ctx, row.ID, &creation); err != nil {
			return &writeStepError{step: "insert_creation_interaction", err: err}
		}
		return nil
	})
}

// UpdateResident merges patch into the resident with id. Unknown ids and
// empty patches make no remote call.
func (s *ResidentStore) UpdateResident(ctx context.Context, id string, patch domain.ResidentPatch) *SyncResult {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return skippedResult(false)
	}
	patch.Apply(&s.collection[idx])
	owner := s.owner
	s.mu.Unlock()

	if patch.Empty() || owner == "" {
		return skippedResult(true)
	}

	fields := patch.Fields()
	return s.persist(ctx, events.EventResidentUpdated, owner, id, func(ctx context.Context) error {
		if err := s.residents.UpdateFields(ctx, id, fields); err != nil {
			return &writeStepError{step: "update_resident", err: err}
		}
		return nil
	})
}

// DeleteResident drops the resident with id. The local removal stands
// whatever the remote outcome.
func (s *ResidentStore) DeleteResident(ctx context.Context, id string) *SyncResult {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return skippedResult(false)
	}
	s.collection = slices.Delete(s.collection, idx, idx+1)
	owner := s.owner
	s.mu.Unlock()

	if owner == "" {
		return skippedResult(true)
	}
	return s.persist(ctx, events.EventResidentDeleted, owner, id, func(ctx context.Context) error {
		if err := s.residents.Delete(ctx, id); err != nil {
			return &writeStepError{step: "delete_resident", err: err}
		}
		return nil
	})
}

// LogInteraction prepends a history entry to the resident with id. A
// status_change must carry newStatus; other kinds must not. Creation entries
// are only synthesized by AddResident.
func (s *ResidentStore) LogInteraction(ctx context.Context, id string, kind domain.InteractionKind, content *string, newStatus *domain.BlessStatus) (*SyncResult, error) {
	if err := validateInteraction(kind, newStatus); err != nil {
		return skippedResult(false), err
	}

	interaction := domain.Interaction{
		ID:        s.newID(),
		Kind:      kind,
		Timestamp: s.now(),
	}
	if content != nil {
		text := *content
		interaction.Content = &text
	}
	if newStatus != nil {
		status := *newStatus
		interaction.Status = &status
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return skippedResult(false), nil
	}
	resident := &s.collection[idx]
	statusChanged := newStatus != nil && *newStatus != resident.CurrentBlessStatus
	resident.Interactions = slices.Insert(resident.Interactions, 0, interaction)
	resident.LastInteraction = interaction.Timestamp
	if newStatus != nil {
		resident.CurrentBlessStatus = *newStatus
	}
	owner := s.owner
	s.mu.Unlock()

	if owner == "" {
		return skippedResult(true), nil
	}

	fields := []domain.FieldValue{{Attribute: domain.AttributeLastInteraction, Value: interaction.Timestamp}}
	if statusChanged {
		fields = append(fields, domain.FieldValue{Attribute: domain.AttributeBlessStatus, Value: *newStatus})
	}
	return s.persist(ctx, events.EventInteractionLogged, owner, id, func(ctx context.Context) error {
		if err := s.interactions.Create(ctx, id, &interaction); err != nil {
			return &writeStepError{step: "insert_interaction", err: err}
		}
		if err := s.residents.UpdateFields(ctx, id, fields); err != nil {
			return &writeStepError{step: "update_resident", err: err}
		}
		return nil
	}), nil
}

func validateInteraction(kind domain.InteractionKind, newStatus *domain.BlessStatus) error {
	switch {
	case !kind.Valid() || kind == domain.InteractionCreation:
		return fmt.Errorf("%w: kind %q", ErrInvalidInteraction, kind)
	case kind == domain.InteractionStatusChange && newStatus == nil:
		return fmt.Errorf("%w: status_change requires a status", ErrInvalidInteraction)
	case kind != domain.InteractionStatusChange && newStatus != nil:
		return fmt.Errorf("%w: only status_change carries a status", ErrInvalidInteraction)
	case newStatus != nil && !newStatus.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidInteraction, *newStatus)
	}
	return nil
}

// Residents returns a copy of the collection in store order.
func (s *ResidentStore) Residents() []domain.Resident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Resident, len(s.collection))
	for i := range s.collection {
		out[i] = s.collection[i].Clone()
	}
	return out
}

// Get returns a copy of the resident with id.
func (s *ResidentStore) Get(id string) (domain.Resident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Resident{}, false
	}
	return s.collection[idx].Clone(), true
}

// Len returns the collection size.
func (s *ResidentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collection)
}

// Owner returns the user the collection belongs to.
func (s *ResidentStore) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Close waits for outstanding remote writes.
func (s *ResidentStore) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// indexOf must be called with mu held.
func (s *ResidentStore) indexOf(id string) int {
	return slices.IndexFunc(s.collection, func(r domain.Resident) bool { return r.ID == id })
}

func (s *ResidentStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// persist runs write in the background. The write keeps ctx's values but
// not its cancellation, so it outlives the request that triggered it.
func (s *ResidentStore) persist(ctx context.Context, eventType events.EventType, owner, residentID string, write func(context.Context) error) *SyncResult {
	result := newPendingResult(true)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		writeCtx := context.WithoutCancel(ctx)
		if s.writeTimeout > 0 {
			var cancel context.CancelFunc
			writeCtx, cancel = context.WithTimeout(writeCtx, s.writeTimeout)
			defer cancel()
		}

		err := write(writeCtx)
		payload := events.RemoteWritePayload{Outcome: events.SyncConfirmed}
		if err != nil {
			payload.Outcome = events.SyncFailed
			payload.Error = err.Error()
			var stepErr *writeStepError
			if errors.As(err, &stepErr) {
				payload.Step = stepErr.step
			}
			s.logger.Error("remote write failed",
				zap.String("operation", string(eventType)),
				zap.String("step", payload.Step),
				zap.String("user_id", owner),
				zap.String("resident_id", residentID),
				zap.Error(err),
			)
		}
		s.publishEvent(writeCtx, events.Event{
			Type:       eventType,
			UserID:     owner,
			ResidentID: residentID,
			Payload:    payload,
		})
		result.settle(err)
	}()
	return result
}

func (s *ResidentStore) publishEvent(ctx context.Context, evt events.Event) {
	if s.dispatcher == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, evt); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(evt.Type)), zap.Error(err))
	}
}

// writeStepError tags a remote failure with the step that failed.
type writeStepError struct {
	step string
	err  error
}

func (e *writeStepError) Error() string {
	return e.step + ": " + e.err.Error()
}

func (e *writeStepError) Unwrap() error {
	return e.err
}
