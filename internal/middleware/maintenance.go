package middleware

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/gofiber/fiber/v2"
)

// SettingsLoader reads the current settings. Load never fails.
type SettingsLoader interface {
	Load(ctx context.Context) entitlement.Settings
}

// Maintenance answers 503 to everyone but administrators while maintenance
// mode is on. Unreadable settings mean defaults, i.e. not in maintenance.
func Maintenance(settings SettingsLoader, policy *AdminPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !settings.Load(c.UserContext()).MaintenanceMode || policy.IsAdmin(c) {
			return c.Next()
		}
		c.Set(fiber.HeaderRetryAfter, "600")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "The service is under maintenance. Please try again later.",
			Code:    "maintenance",
		})
	}
}
