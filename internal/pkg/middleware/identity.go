package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lumencast/lumencast/internal/pkg/identity"
)

// Headers set by the external auth collaborator in front of this service.
const (
	HeaderUserID    = "X-Lumen-User"
	HeaderModerator = "X-Lumen-Moderator"
)

// IdentityMiddleware lifts the gateway's identity headers into the request
// context. It never rejects; handlers that need an identity use RequireUser.
func IdentityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(HeaderUserID))
		if userID != "" {
			c.Locals(identity.ContextKey, identity.RequestUser{
				ID:          userID,
				IsModerator: c.Get(HeaderModerator) == "true",
			})
		}
		return c.Next()
	}
}

// RequireUser rejects requests without an identity header.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !identity.FromCtx(c).IsKnown() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
		}
		return c.Next()
	}
}

// RequireModerator rejects requests whose identity lacks the moderator flag.
func RequireModerator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := identity.FromCtx(c)
		if !user.IsKnown() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
		}
		if !user.IsModerator {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Moderator privileges required"})
		}
		return c.Next()
	}
}
