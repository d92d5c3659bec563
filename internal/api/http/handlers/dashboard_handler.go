package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bless-tracker/internal/api/dto"
	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/service"
	apperrors "github.com/spec-kit/bless-tracker/pkg/util/errorutil"
)

// DashboardHandler serves derived views and the reminder preference.
type DashboardHandler struct {
	sessions *service.SessionManager
	monitor  *service.SyncMonitor
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(sessions *service.SessionManager, monitor *service.SyncMonitor) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, monitor: monitor}
}

// Dashboard handles GET /dashboard.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(session.Dashboard())})
}

// Notifications handles GET /notifications.
func (h *DashboardHandler) Notifications(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotificationsResponse{
		Enabled:        session.Preferences.Enabled(),
		ReminderActive: session.Preferences.Scheduler().Running(),
	}})
}

// ToggleNotifications handles POST /notifications/toggle.
func (h *DashboardHandler) ToggleNotifications(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	enabled, result := session.Preferences.Toggle(c.UserContext())
	return c.JSON(fiber.Map{"data": dto.NotificationsResponse{
		Enabled:        enabled,
		ReminderActive: session.Preferences.Scheduler().Running(),
		Sync:           result.Status(),
	}})
}

// SyncFailures handles GET /sync/failures.
func (h *DashboardHandler) SyncFailures(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewSyncFailures(h.monitor.RecentFailures(principal.UserID))})
}
