package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const currentUserKey = "current_user"

// JWTProtected verifies identity provider tokens. With JWKS_URL set, keys are
// fetched from the provider; otherwise tokens are HS256 signed with JWT_SECRET.
// When JWT_ISSUER is set, tokens from any other issuer are rejected.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return newJWT(cfg, nil)
}

// newJWT builds the token verifier. Requests matching skip bypass it.
func newJWT(cfg *config.Config, skip func(*fiber.Ctx) bool) fiber.Handler {
	unauthorized := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "Unauthorized: invalid or expired token",
		})
	}
	jwtCfg := jwtware.Config{
		Filter: skip,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			if cfg.JWTIssuer != "" {
				claims, ok := Claims(c)
				if !ok {
					return unauthorized(c)
				}
				if iss, _ := claims.GetIssuer(); iss != cfg.JWTIssuer {
					return unauthorized(c)
				}
			}
			return c.Next()
		},
	}
	if cfg.JWKSURL != "" {
		jwtCfg.JWKSetURLs = []string{cfg.JWKSURL}
	} else {
		jwtCfg.SigningKey = jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)}
	}
	return jwtware.New(jwtCfg)
}

// Claims returns the verified token claims set by JWTProtected.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// IdentityFromClaims reads the subject, email and display name. Providers
// disagree on the name claim, so a few common ones are tried.
func IdentityFromClaims(claims jwt.MapClaims) services.Identity {
	id := services.Identity{}
	id.ExternalID, _ = claims["sub"].(string)
	id.Email, _ = claims["email"].(string)
	for _, key := range []string{"name", "full_name", "username"} {
		if v, _ := claims[key].(string); strings.TrimSpace(v) != "" {
			id.Name = v
			break
		}
	}
	return id
}

// LoadUser provisions the caller on first sight and stores the local user
// for the handlers.
func LoadUser(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		identity := IdentityFromClaims(claims)
		if identity.ExternalID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid claims",
			})
		}

		user, err := users.EnsureUser(c.UserContext(), identity)
		if err != nil {
			return err
		}
		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(currentUserKey).(*models.User)
	return user, ok && user != nil
}
