package handlers

import (
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	settings      *entitlement.SettingsStore
	subscriptions *services.SubscriptionService
	users         *services.UserService
	validate      *validator.Validate
}

func NewAdminHandler(settings *entitlement.SettingsStore, subscriptions *services.SubscriptionService, users *services.UserService, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{
		settings:      settings,
		subscriptions: subscriptions,
		users:         users,
		validate:      validate,
	}
}

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(h.settings.Load(c.UserContext()))
}

// UpdateSettings applies a partial update; omitted fields keep their value.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var update entitlement.SettingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, "Invalid request body")
	}
	saved, err := h.settings.Save(c.UserContext(), update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"error":    false,
		"message":  "Settings updated successfully",
		"settings": saved,
	})
}

func (h *AdminHandler) SetUserPlan(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	var req dto.SetPlanRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return badRequest(c, err.Error())
	}
	tier, _ := plans.ParsePlanTier(req.Plan)

	sub, err := h.subscriptions.SetUserPlan(c.UserContext(), userID, tier, req.DurationDays)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

func (h *AdminHandler) ResetUsage(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	if err := h.subscriptions.ResetUsage(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Error: false, Message: "Usage reset"})
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	user, err := h.users.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *AdminHandler) ListSubscriptions(c *fiber.Ctx) error {
	page, err := h.subscriptions.ListSubscriptions(c.UserContext(), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *AdminHandler) ListExpiring(c *fiber.Ctx) error {
	report, err := h.subscriptions.ListExpiring(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *AdminHandler) ExpireSubscriptions(c *fiber.Ctx) error {
	report, err := h.subscriptions.DowngradeExpired(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.subscriptions.PlanStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
