package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/bless-tracker/internal/api/dto"
	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/service"
	apperrors "github.com/spec-kit/bless-tracker/pkg/util/errorutil"
)

// ResidentsHandler exposes the caller's resident collection.
type ResidentsHandler struct {
	sessions *service.SessionManager
}

// NewResidentsHandler constructs handler.
func NewResidentsHandler(sessions *service.SessionManager) *ResidentsHandler {
	return &ResidentsHandler{sessions: sessions}
}

// List handles GET /residents.
func (h *ResidentsHandler) List(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	residents := session.Store.Residents()
	return c.JSON(fiber.Map{
		"data": dto.NewResidentList(residents),
		"meta": fiber.Map{"total": len(residents)},
	})
}

// Get handles GET /residents/:id.
func (h *ResidentsHandler) Get(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	resident, ok := session.Store.Get(residentID(c))
	if !ok {
		return apperrors.NewNotFound("resident")
	}
	return c.JSON(fiber.Map{"data": dto.NewResidentResponse(resident)})
}

// Create handles POST /residents.
func (h *ResidentsHandler) Create(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	var req dto.CreateResidentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resident, result := session.AddResidentAt(c.UserContext(), req.Coordinate(), req.Address)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewResidentResponse(resident),
		"sync": result.Status(),
	})
}

// Update handles PATCH /residents/:id.
func (h *ResidentsHandler) Update(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	var req dto.UpdateResidentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id := residentID(c)
	result := session.Store.UpdateResident(c.UserContext(), id, req.Patch())
	if !result.Applied() {
		return apperrors.NewNotFound("resident")
	}
	resident, ok := session.Store.Get(id)
	if !ok {
		return apperrors.NewNotFound("resident")
	}
	return c.JSON(fiber.Map{
		"data": dto.NewResidentResponse(resident),
		"sync": result.Status(),
	})
}

// Delete handles DELETE /residents/:id.
func (h *ResidentsHandler) Delete(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	id := residentID(c)
	result := session.Store.DeleteResident(c.UserContext(), id)
	if !result.Applied() {
		return apperrors.NewNotFound("resident")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}, "sync": result.Status()})
}

// LogInteraction handles POST /residents/:id/interactions.
func (h *ResidentsHandler) LogInteraction(c *fiber.Ctx) error {
	session, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	var req dto.LogInteractionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var status *domain.BlessStatus
	if req.Status != nil {
		parsed, err := domain.ParseBlessStatus(*req.Status)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		status = &parsed
	}

	id := residentID(c)
	result, err := session.Store.LogInteraction(c.UserContext(), id, domain.InteractionKind(req.Type), req.Content, status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInteraction) {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		return apperrors.MapError(err)
	}
	if !result.Applied() {
		return apperrors.NewNotFound("resident")
	}
	resident, ok := session.Store.Get(id)
	if !ok {
		return apperrors.NewNotFound("resident")
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewResidentResponse(resident),
		"sync": result.Status(),
	})
}

// residentID copies the route parameter; fiber reuses its buffer after the
// handler returns and remote writes outlive the request.
func residentID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}
