package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Entitlements *handlers.EntitlementHandler
	Resumes      *handlers.ResumeHandler
	AI           *handlers.AIHandler
	Admin        *handlers.AdminHandler
	Cron         *handlers.CronHandler
	Webhooks     *handlers.WebhookHandler
}

type Deps struct {
	Users       *services.UserService
	Settings    middleware.SettingsLoader
	AdminPolicy *middleware.AdminPolicy
}

func Setup(app *fiber.App, cfg *config.Config, deps Deps, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter, per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public
	api.Get("/health", h.Health.Check)
	api.Get("/plans", h.Entitlements.ListPlans)

	// Machine-to-machine, authenticated by shared secrets
	api.Post("/webhooks/identity", h.Webhooks.HandleIdentity)
	api.Post("/cron/expire-subscriptions", h.Cron.ExpireSubscriptions)

	authed := []fiber.Handler{middleware.JWTProtected(cfg), middleware.LoadUser(deps.Users)}

	// Admin (X-Admin-Token, or JWT + admin policy); exempt from maintenance mode
	admin := api.Group("/admin", middleware.AdminChain(cfg, deps.Users, deps.AdminPolicy)...)
	admin.Get("/settings", h.Admin.GetSettings)
	admin.Put("/settings", h.Admin.UpdateSettings)
	admin.Get("/users/:id", h.Admin.GetUser)
	admin.Put("/users/:id/plan", h.Admin.SetUserPlan)
	admin.Post("/users/:id/reset-usage", h.Admin.ResetUsage)
	admin.Get("/subscriptions", h.Admin.ListSubscriptions)
	admin.Get("/subscriptions/expiring", h.Admin.ListExpiring)
	admin.Post("/subscriptions/expire", h.Admin.ExpireSubscriptions)
	admin.Get("/stats", h.Admin.Stats)

	// Features (JWT + maintenance gate). Middleware is attached per route so
	// that it never runs for the public routes above.
	protected := append(authed, middleware.Maintenance(deps.Settings, deps.AdminPolicy))
	with := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, protected...), handler)
	}

	api.Get("/entitlements", with(h.Entitlements.GetEntitlements)...)

	api.Get("/resumes", with(h.Resumes.List)...)
	api.Post("/resumes", with(h.Resumes.Create)...)
	api.Post("/resumes/import", with(h.Resumes.Import)...)
	api.Get("/resumes/:id", with(h.Resumes.Get)...)
	api.Put("/resumes/:id", with(h.Resumes.Update)...)
	api.Delete("/resumes/:id", with(h.Resumes.Delete)...)
	api.Get("/resumes/:id/preview", with(h.Resumes.Preview)...)
	api.Post("/resumes/:id/export", with(h.Resumes.Export)...)
	api.Post("/resumes/:id/photo", with(h.Resumes.UploadPhoto)...)
	api.Delete("/resumes/:id/photo", with(h.Resumes.DeletePhoto)...)

	api.Post("/ai/enhance", with(h.AI.Enhance)...)
	api.Post("/ai/summary", with(h.AI.Summary)...)
	api.Post("/ai/ats", with(h.AI.ATS)...)
}
