package middleware

import (
	"strings"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// SessionFrom returns the session stored by AuthRequired or OptionalAuth, or nil.
func SessionFrom(c *fiber.Ctx) *models.Session {
	session, _ := c.Locals(sessionKey).(*models.Session)
	return session
}

func bearerToken(c *fiber.Ctx) (string, bool, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false, "Authorization header is required"
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", false, "Authorization header format must be 'Bearer <token>'"
	}
	return parts[1], true, ""
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	log := logging.For("middleware")
	return func(c *fiber.Ctx) error {
		token, ok, problem := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": problem,
			})
		}

		session, err := authService.SessionFromToken(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// OptionalAuth stores the session when a valid bearer token is present and lets
// anonymous requests through. An invalid token is treated as signed out.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	log := logging.For("middleware")
	return func(c *fiber.Ctx) error {
		token, ok, _ := bearerToken(c)
		if !ok {
			return c.Next()
		}
		session, err := authService.SessionFromToken(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("ignoring invalid token")
			return c.Next()
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// AdminRequired rejects requests whose session is not the seller's. Run it after AuthRequired.
func AdminRequired(admin *services.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := admin.Authorize(SessionFrom(c)); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "access denied",
			})
		}
		return c.Next()
	}
}
