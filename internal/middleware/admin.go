package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminPolicy decides who is an administrator:
// 1. X-Admin-Token header matching ADMIN_TOKEN
// 2. ADMIN_EMAILS / ADMIN_USER_IDS (auth provider subject)
// 3. the local user's role
type AdminPolicy struct {
	emails []string
	ids    []string
	token  string
}

func NewAdminPolicy(cfg *config.Config) *AdminPolicy {
	return &AdminPolicy{
		emails: parseCSV(strings.ToLower(cfg.AdminEmails)),
		ids:    parseCSV(cfg.AdminUserIDs),
		token:  cfg.AdminToken,
	}
}

// HasToken reports whether the request carries a valid X-Admin-Token.
func (p *AdminPolicy) HasToken(c *fiber.Ctx) bool {
	if p.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(p.token)) == 1
}

func (p *AdminPolicy) IsAdmin(c *fiber.Ctx) bool {
	if p.HasToken(c) {
		return true
	}

	if claims, ok := Claims(c); ok {
		id := IdentityFromClaims(claims)
		if contains(p.emails, strings.ToLower(id.Email)) || contains(p.ids, id.ExternalID) {
			return true
		}
	}

	if user, ok := CurrentUser(c); ok && user.Role == models.RoleAdmin {
		return true
	}
	return false
}

// AdminChain guards the admin API. A valid X-Admin-Token is enough on its
// own; everyone else needs a verified token and passes through LoadUser.
func AdminChain(cfg *config.Config, users *services.UserService, policy *AdminPolicy) []fiber.Handler {
	load := LoadUser(users)
	return []fiber.Handler{
		newJWT(cfg, policy.HasToken),
		func(c *fiber.Ctx) error {
			if policy.HasToken(c) {
				return c.Next()
			}
			return load(c)
		},
		AdminRequired(policy),
	}
}

func AdminRequired(policy *AdminPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := Claims(c); !ok && !policy.HasToken(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if policy.IsAdmin(c) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
