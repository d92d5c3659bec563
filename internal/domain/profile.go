package domain

import "time"

// Profile is the account owning a set of residents.
type Profile struct {
	ID                   string
	Email                string
	PasswordHash         string
	NotificationsEnabled bool
	CreatedAt            time.Time
}
