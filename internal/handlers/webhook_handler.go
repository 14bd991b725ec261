package handlers

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	users    *services.UserService
	secret   string
	validate *validator.Validate
}

func NewWebhookHandler(users *services.UserService, secret string, validate *validator.Validate) *WebhookHandler {
	return &WebhookHandler{users: users, secret: secret, validate: validate}
}

// HandleIdentity keeps local users in step with the auth provider. The
// provider signs its requests; the proxy in front of us verifies the
// signature and forwards the shared secret as a bearer token.
func (h *WebhookHandler) HandleIdentity(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured",
		})
	}

	authHeader := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var event dto.IdentityWebhook
	if err := parseBody(c, h.validate, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	var err error
	switch event.Type {
	case "user.created", "user.updated":
		name := event.Data.Name
		if name == "" {
			name = event.Data.Username
		}
		_, err = h.users.EnsureUser(c.UserContext(), services.Identity{
			ExternalID: event.Data.ID,
			Email:      event.Data.Email,
			Name:       name,
		})
	case "user.deleted":
		err = h.users.DeleteIdentity(c.UserContext(), event.Data.ID)
	}
	if err != nil {
		slog.ErrorContext(c.UserContext(), "webhook processing failed",
			"action", "identity_webhook", "event_type", event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", event.Type)
	return c.JSON(fiber.Map{"received": true})
}
