package domain

import (
	"fmt"
	"time"
)

// DefaultResidentName is assigned to freshly dropped pins.
const DefaultResidentName = "New Neighbor"

// CreationNote is the content of the synthesized creation interaction.
const CreationNote = "Resident added to map"

// Coordinate is a geographic point.
type Coordinate struct {
	Longitude float64
	Latitude  float64
}

// Resident is a household pinned on the map.
type Resident struct {
	ID                 string
	Coordinate         Coordinate
	Address            string
	Name               string
	CurrentBlessStatus BlessStatus
	PrayerRequests     *string
	Interactions       []Interaction // newest first
	LastInteraction    time.Time
	CreatedAt          time.Time
}

// Clone returns a deep copy that shares no memory with r.
func (r Resident) Clone() Resident {
	out := r
	if r.PrayerRequests != nil {
		prayer := *r.PrayerRequests
		out.PrayerRequests = &prayer
	}
	out.Interactions = make([]Interaction, len(r.Interactions))
	for i := range r.Interactions {
		out.Interactions[i] = r.Interactions[i].clone()
	}
	return out
}

// CheckInvariants verifies the history-derived fields agree with the trail.
func (r Resident) CheckInvariants() error {
	if len(r.Interactions) == 0 {
		return nil
	}
	for i := 1; i < len(r.Interactions); i++ {
		if r.Interactions[i].Timestamp.After(r.Interactions[i-1].Timestamp) {
			return fmt.Errorf("resident %s: interactions not newest-first at %d", r.ID, i)
		}
	}
	if !r.LastInteraction.Equal(r.Interactions[0].Timestamp) {
		return fmt.Errorf("resident %s: last interaction %s does not match newest entry %s",
			r.ID, r.LastInteraction, r.Interactions[0].Timestamp)
	}
	for _, interaction := range r.Interactions {
		if !interaction.CarriesStatus() {
			continue
		}
		if *interaction.Status != r.CurrentBlessStatus {
			return fmt.Errorf("resident %s: status %s does not match newest status entry %s",
				r.ID, r.CurrentBlessStatus, *interaction.Status)
		}
		break
	}
	return nil
}

// ResidentAttribute names a patchable resident field.
type ResidentAttribute int

const (
	AttributeName ResidentAttribute = iota
	AttributeAddress
	AttributePrayerRequests
	AttributeBlessStatus
	AttributeLastInteraction

	// ResidentAttributeCount sizes lookup tables keyed by attribute.
	ResidentAttributeCount
)

// FieldValue pairs an attribute with its new value.
type FieldValue struct {
	Attribute ResidentAttribute
	Value     any
}

// ResidentPatch carries the caller-editable attributes. Nil fields are untouched.
type ResidentPatch struct {
	Name           *string
	Address        *string
	PrayerRequests *string
}

// Empty reports whether the patch changes nothing.
func (p ResidentPatch) Empty() bool {
	return p.Name == nil && p.Address == nil && p.PrayerRequests == nil
}

// Fields lists the present attributes in a fixed order.
func (p ResidentPatch) Fields() []FieldValue {
	fields := make([]FieldValue, 0, 3)
	if p.Name != nil {
		fields = append(fields, FieldValue{Attribute: AttributeName, Value: *p.Name})
	}
	if p.Address != nil {
		fields = append(fields, FieldValue{Attribute: AttributeAddress, Value: *p.Address})
	}
	if p.PrayerRequests != nil {
		fields = append(fields, FieldValue{Attribute: AttributePrayerRequests, Value: *p.PrayerRequests})
	}
	return fields
}

// Apply merges the patch into r.
func (p ResidentPatch) Apply(r *Resident) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.PrayerRequests != nil {
		prayer := *p.PrayerRequests
		r.PrayerRequests = &prayer
	}
}
