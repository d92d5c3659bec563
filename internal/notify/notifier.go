// Package notify delivers user-visible reminders.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/config"
)

// Permission mirrors the platform tri-state permission answer.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Message is a single notification.
type Message struct {
	UserID string
	Title  string
	Body   string
}

// Notifier requests permission for and emits notifications.
type Notifier interface {
	RequestPermission(ctx context.Context, userID string) Permission
	Notify(ctx context.Context, msg Message) error
}

// New selects the Notifier for the configured mode.
func New(cfg config.NotificationConfig, logger *zap.Logger) (Notifier, error) {
	switch cfg.Mode {
	case config.NotifyModeLog:
		return NewLogNotifier(logger), nil
	case config.NotifyModeWebhook:
		return NewWebhookNotifier(cfg.WebhookURL, logger), nil
	case config.NotifyModeDisabled:
		return DisabledNotifier{}, nil
	}
	return nil, fmt.Errorf("unknown notification mode %q", cfg.Mode)
}

// LogNotifier writes notifications to the log. Permission is always granted.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RequestPermission(context.Context, string) Permission {
	return PermissionGranted
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("notification",
		zap.String("user_id", msg.UserID),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body))
	return nil
}

// DisabledNotifier refuses every permission request.
type DisabledNotifier struct{}

func (DisabledNotifier) RequestPermission(context.Context, string) Permission {
	return PermissionDenied
}

func (DisabledNotifier) Notify(context.Context, Message) error {
	return fmt.Errorf("notifications disabled")
}
