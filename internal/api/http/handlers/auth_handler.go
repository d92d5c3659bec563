package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bless-tracker/internal/api/dto"
	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/repository"
	"github.com/spec-kit/bless-tracker/internal/service"
	apperrors "github.com/spec-kit/bless-tracker/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and sign-out.
type AuthHandler struct {
	auth     *service.AuthService
	profiles repository.ProfileRepository
	sessions *service.SessionManager
	monitor  *service.SyncMonitor
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, profiles repository.ProfileRepository, sessions *service.SessionManager, monitor *service.SyncMonitor) *AuthHandler {
	return &AuthHandler{auth: authService, profiles: profiles, sessions: sessions, monitor: monitor}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, token, exp, err := h.auth.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return apperrors.NewConflict(err.Error())
		}
		return apperrors.MapError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"profile": dto.NewProfileResponse(profile),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	profile, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return apperrors.MapError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"profile": dto.NewProfileResponse(profile),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profile, err := h.profiles.GetByID(c.UserContext(), principal.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(profile)})
}

// Logout handles POST /auth/logout. The caller's session is torn down; the
// token itself stays valid until it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.sessions.End(c.UserContext(), principal.UserID); err != nil {
		return apperrors.MapError(err)
	}
	if h.monitor != nil {
		h.monitor.Forget(principal.UserID)
	}
	return c.SendStatus(http.StatusNoContent)
}
