package domain

import "time"

// InteractionKind classifies an entry in a resident's history trail.
type InteractionKind string

const (
	InteractionStatusChange InteractionKind = "status_change"
	InteractionNote         InteractionKind = "note"
	InteractionPrayerPoint  InteractionKind = "prayer_point"
	InteractionCreation     InteractionKind = "creation"
)

// Valid reports whether k is a known kind.
func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionStatusChange, InteractionNote, InteractionPrayerPoint, InteractionCreation:
		return true
	}
	return false
}

// Interaction is an immutable, append-only history entry.
type Interaction struct {
	ID        string
	Kind      InteractionKind
	Content   *string
	Status    *BlessStatus
	Timestamp time.Time
}

// CarriesStatus reports whether the entry sets the resident's stage.
func (i Interaction) CarriesStatus() bool {
	return i.Status != nil && (i.Kind == InteractionStatusChange || i.Kind == InteractionCreation)
}

func (i Interaction) clone() Interaction {
	out := i
	if i.Content != nil {
		content := *i.Content
		out.Content = &content
	}
	if i.Status != nil {
		status := *i.Status
		out.Status = &status
	}
	return out
}
