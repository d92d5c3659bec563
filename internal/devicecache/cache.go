// Package devicecache stores small per-device string values such as the
// reminder preference and the last reminder date.
package devicecache

import (
	"context"
	"strconv"
)

// Well-known keys.
const (
	KeyNotificationsEnabled = "bless_notifications_enabled"
	KeyLastReminderDate     = "bless_last_notification_date"
)

// Cache is a string key/value store. Get reports ok=false for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Scoped prefixes every key with an owner so several users can share one
// backing cache without seeing each other's values.
type Scoped struct {
	cache Cache
	owner string
}

// NewScoped binds cache to owner.
func NewScoped(cache Cache, owner string) *Scoped {
	return &Scoped{cache: cache, owner: owner}
}

func (s *Scoped) key(name string) string {
	return "device:" + s.owner + ":" + name
}

// Get reads name for the bound owner.
func (s *Scoped) Get(ctx context.Context, name string) (string, bool, error) {
	return s.cache.Get(ctx, s.key(name))
}

// Set writes name for the bound owner.
func (s *Scoped) Set(ctx context.Context, name, value string) error {
	return s.cache.Set(ctx, s.key(name), value)
}

// GetBool reads a boolean flag. Absent or unparsable values report ok=false.
func (s *Scoped) GetBool(ctx context.Context, name string) (value bool, ok bool, err error) {
	raw, found, err := s.Get(ctx, name)
	if err != nil || !found {
		return false, false, err
	}
	parsed, perr := strconv.ParseBool(raw)
	if perr != nil {
		return false, false, nil
	}
	return parsed, true, nil
}

// SetBool writes a boolean flag as "true" or "false".
func (s *Scoped) SetBool(ctx context.Context, name string, value bool) error {
	return s.Set(ctx, name, strconv.FormatBool(value))
}
