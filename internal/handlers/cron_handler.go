package handlers

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// CronHandler exposes the lifecycle job to an external scheduler.
type CronHandler struct {
	subscriptions *services.SubscriptionService
	secret        string
}

func NewCronHandler(subscriptions *services.SubscriptionService, secret string) *CronHandler {
	return &CronHandler{subscriptions: subscriptions, secret: secret}
}

func (h *CronHandler) ExpireSubscriptions(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Cron trigger not configured",
		})
	}
	if subtle.ConstantTimeCompare([]byte(c.Get("X-Cron-Secret")), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	report, err := h.subscriptions.DowngradeExpired(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
