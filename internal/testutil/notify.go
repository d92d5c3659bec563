package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spec-kit/bless-tracker/internal/notify"
)

// Notifier records messages and answers permission requests with Permission.
type Notifier struct {
	Permission notify.Permission
	NotifyErr  error

	mu       sync.Mutex
	messages []notify.Message
	sent     chan notify.Message
}

// NewNotifier returns a Notifier granting permission.
func NewNotifier() *Notifier {
	return &Notifier{Permission: notify.PermissionGranted, sent: make(chan notify.Message, 16)}
}

func (n *Notifier) RequestPermission(context.Context, string) notify.Permission {
	return n.Permission
}

func (n *Notifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.mu.Unlock()
	select {
	case n.sent <- msg:
	default:
	}
	return n.NotifyErr
}

// Messages returns everything sent so far.
func (n *Notifier) Messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.messages...)
}

// Next waits for the next message.
func (n *Notifier) Next(timeout time.Duration) (notify.Message, error) {
	select {
	case msg := <-n.sent:
		return msg, nil
	case <-time.After(timeout):
		return notify.Message{}, errors.New("no notification within timeout")
	}
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
