package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const CodeUpgradeRequired = "upgrade_required"

const retryLaterMessage = "Something went wrong. Please try again later."

// respondError maps domain errors to HTTP responses. Anything unrecognized
// is logged and reported as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var denied *entitlement.DeniedError
	switch {
	case errors.As(err, &denied):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: denied.Message, Code: CodeUpgradeRequired,
		})
	case errors.Is(err, entitlement.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Upgrade your plan to use this feature.", Code: CodeUpgradeRequired,
		})
	case errors.Is(err, entitlement.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	case errors.Is(err, entitlement.ErrSubscriptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Subscription not found",
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Not found",
		})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, entitlement.ErrInvalidSettings):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrAIUnavailable),
		errors.Is(err, services.ErrRenderFailed),
		errors.Is(err, services.ErrPhotoStorage):
		slog.ErrorContext(c.UserContext(), "upstream service failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: retryLaterMessage,
		})
	}

	slog.ErrorContext(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: retryLaterMessage,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// parseBody decodes and validates a JSON body. The returned error text is
// safe to show to the client.
func parseBody(c *fiber.Ctx, v *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("Invalid request body")
	}
	if err := v.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("Invalid field: " + verrs[0].Field())
		}
		return errors.New("Invalid request body")
	}
	return nil
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return uuid.Nil, entitlement.ErrUnauthorized
	}
	return user.ID, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
