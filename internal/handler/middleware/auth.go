package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ordin20118/social-auth-service/internal/service"
)

// SessionAuth validates the opaque bearer credential against the session
// token store. The credential is matched as a literal string; there is no
// local decoding.
func SessionAuth(sessionTokens *service.SessionTokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential, ok := bearerCredential(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or malformed authorization header",
			})
		}

		userID, ok := sessionTokens.ResolveUserID(c.Context(), credential)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired session",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("credential", credential)

		return c.Next()
	}
}

// bearerCredential extracts the opaque credential from the Authorization
// header.
func bearerCredential(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
