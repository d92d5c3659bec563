package handlers

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/service"
	apperrors "github.com/spec-kit/bless-tracker/pkg/util/errorutil"
)

type validatable interface {
	Validate() error
}

// parseBody decodes and validates a JSON body.
func parseBody(c *fiber.Ctx, out validatable) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validationError(out.Validate())
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

// currentSession opens the caller's session.
func currentSession(c *fiber.Ctx, sessions *service.SessionManager) (*service.Session, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	session, err := sessions.Open(c.UserContext(), principal.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return session, nil
}
