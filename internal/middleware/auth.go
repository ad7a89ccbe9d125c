package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/admin/login"

// SessionReader resolves the authenticated user on a request.
type SessionReader interface {
	UserID(c *fiber.Ctx) (uint, bool, error)
}

// AdminRequired redirects to the login page unless the request carries an
// admin session. The handler chain does not run for unauthenticated requests.
func AdminRequired(sessions SessionReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := sessions.UserID(c)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "failed to read session", slog.String("error", err.Error()))
		}
		if !ok {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}

		c.Locals("userID", userID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
		return c.Next()
	}
}
