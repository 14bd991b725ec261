package handlers

import (
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/gofiber/fiber/v2"
)

type EntitlementHandler struct {
	resolver *entitlement.Resolver
	settings *entitlement.SettingsStore
}

func NewEntitlementHandler(resolver *entitlement.Resolver, settings *entitlement.SettingsStore) *EntitlementHandler {
	return &EntitlementHandler{resolver: resolver, settings: settings}
}

// GetEntitlements returns what the caller may do right now. A user without a
// subscription gets an all-false answer rather than an error.
func (h *EntitlementHandler) GetEntitlements(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.resolver.ResolveOrDeny(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}

// ListPlans is the public pricing table.
func (h *EntitlementHandler) ListPlans(c *fiber.Ctx) error {
	s := h.settings.Load(c.UserContext())
	out := make([]dto.PlanInfo, 0, len(plans.AllTiers))
	for _, tier := range plans.AllTiers {
		out = append(out, dto.PlanInfo{
			Tier:           tier,
			Price:          s.PriceFor(tier),
			Limits:         s.LimitsFor(tier),
			Templates:      s.TemplatesFor(tier),
			CanUploadPhoto: s.PhotoEligible(tier),
		})
	}
	return c.JSON(fiber.Map{"plans": out})
}
