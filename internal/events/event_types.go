package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventResidentCreated     EventType = "resident_created"
	EventResidentUpdated     EventType = "resident_updated"
	EventResidentDeleted     EventType = "resident_deleted"
	EventInteractionLogged   EventType = "interaction_logged"
	EventPreferenceChanged   EventType = "preference_changed"
	EventReminderDispatched  EventType = "reminder_dispatched"
)

// SyncOutcome is the final state of a background remote write.
type SyncOutcome string

const (
	SyncConfirmed SyncOutcome = "confirmed"
	SyncFailed    SyncOutcome = "failed"
)

// Event represents a domain event emitted once a remote write settles.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	UserID     string      `json:"user_id"`
	ResidentID string      `json:"resident_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// RemoteWritePayload describes how a background write ended.
type RemoteWritePayload struct {
	Outcome SyncOutcome `json:"outcome"`
	Step    string      `json:"step,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ReminderPayload describes a reminder delivery.
type ReminderPayload struct {
	ResidentID   string `json:"resident_id"`
	ResidentName string `json:"resident_name"`
	Delivered    bool   `json:"delivered"`
	Error        string `json:"error,omitempty"`
}
