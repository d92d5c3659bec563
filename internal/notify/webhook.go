package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const webhookTimeout = 5 * time.Second

// WebhookNotifier posts notifications as JSON to a configured endpoint.
// Permission is granted only when an endpoint is configured.
type WebhookNotifier struct {
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier builds a WebhookNotifier.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{url: strings.TrimSpace(url), logger: logger}
}

type webhookPayload struct {
	UserID string    `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

func (n *WebhookNotifier) RequestPermission(context.Context, string) Permission {
	if n.url == "" {
		return PermissionDenied
	}
	return PermissionGranted
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	if n.url == "" {
		return fmt.Errorf("webhook url not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Post(n.url)
	agent.JSON(webhookPayload{
		UserID: msg.UserID,
		Title:  msg.Title,
		Body:   msg.Body,
		SentAt: time.Now().UTC(),
	})
	agent.Timeout(webhookTimeout)

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post webhook: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("post webhook: unexpected status %d", code)
	}
	n.logger.Debug("webhook notification sent", zap.String("user_id", msg.UserID), zap.String("title", msg.Title))
	return nil
}
