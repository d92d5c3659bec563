package dto

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

// CreateResidentRequest drops a pin. A blank address is geocoded.
type CreateResidentRequest struct {
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
	Address   string   `json:"address"`
}

// Validate checks the payload shape.
func (r CreateResidentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Longitude, validation.NotNil, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.Latitude, validation.NotNil, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Address, validation.Length(0, 500)),
	)
}

// Coordinate returns the validated point.
func (r CreateResidentRequest) Coordinate() domain.Coordinate {
	return domain.Coordinate{Longitude: *r.Longitude, Latitude: *r.Latitude}
}

// UpdateResidentRequest is a partial update. Absent fields stay untouched.
// Status moves through interactions, so a status field is rejected.
type UpdateResidentRequest struct {
	Name           *string          `json:"name"`
	Address        *string          `json:"address"`
	PrayerRequests *string          `json:"prayer_requests"`
	Status         *json.RawMessage `json:"current_bless_status"`
}

// Validate checks the payload shape.
func (r UpdateResidentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Address, validation.Length(0, 500)),
		validation.Field(&r.PrayerRequests, validation.Length(0, 5000)),
		validation.Field(&r.Status, validation.Nil.Error("status changes are logged as interactions")),
	)
}

// Patch converts the request into a domain patch.
func (r UpdateResidentRequest) Patch() domain.ResidentPatch {
	return domain.ResidentPatch{Name: r.Name, Address: r.Address, PrayerRequests: r.PrayerRequests}
}

// LogInteractionRequest appends a history entry.
type LogInteractionRequest struct {
	Type    string  `json:"type"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// Validate checks the payload shape.
func (r LogInteractionRequest) Validate() error {
	kinds := []interface{}{
		string(domain.InteractionStatusChange),
		string(domain.InteractionNote),
		string(domain.InteractionPrayerPoint),
	}
	statuses := make([]interface{}, 0, len(domain.BlessStatuses))
	for _, s := range domain.BlessStatuses {
		statuses = append(statuses, string(s))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(kinds...)),
		validation.Field(&r.Content, validation.Length(0, 5000)),
		validation.Field(&r.Status,
			validation.When(r.Type == string(domain.InteractionStatusChange), validation.Required).
				Else(validation.Nil),
			validation.In(statuses...)),
	)
}

// InteractionResponse is one history entry.
type InteractionResponse struct {
	ID        string                 `json:"id"`
	Type      domain.InteractionKind `json:"type"`
	Content   *string                `json:"content,omitempty"`
	Status    *domain.BlessStatus    `json:"status,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ResidentResponse is a resident with its history.
type ResidentResponse struct {
	ID                 string                `json:"id"`
	Longitude          float64               `json:"longitude"`
	Latitude           float64               `json:"latitude"`
	Address            string                `json:"address"`
	Name               string                `json:"name"`
	CurrentBlessStatus domain.BlessStatus    `json:"current_bless_status"`
	StatusColor        string                `json:"status_color"`
	PrayerRequests     *string               `json:"prayer_requests"`
	LastInteraction    time.Time             `json:"last_interaction"`
	CreatedAt          time.Time             `json:"created_at"`
	Interactions       []InteractionResponse `json:"interactions"`
}

// NewResidentResponse maps a resident.
func NewResidentResponse(r domain.Resident) ResidentResponse {
	interactions := make([]InteractionResponse, 0, len(r.Interactions))
	for _, i := range r.Interactions {
		interactions = append(interactions, InteractionResponse{
			ID:        i.ID,
			Type:      i.Kind,
			Content:   i.Content,
			Status:    i.Status,
			Timestamp: i.Timestamp,
		})
	}
	return ResidentResponse{
		ID:                 r.ID,
		Longitude:          r.Coordinate.Longitude,
		Latitude:           r.Coordinate.Latitude,
		Address:            r.Address,
		Name:               r.Name,
		CurrentBlessStatus: r.CurrentBlessStatus,
		StatusColor:        domain.StatusColor(r.CurrentBlessStatus),
		PrayerRequests:     r.PrayerRequests,
		LastInteraction:    r.LastInteraction,
		CreatedAt:          r.CreatedAt,
		Interactions:       interactions,
	}
}

// NewResidentList maps a collection.
func NewResidentList(residents []domain.Resident) []ResidentResponse {
	out := make([]ResidentResponse, 0, len(residents))
	for _, r := range residents {
		out = append(out, NewResidentResponse(r))
	}
	return out
}
