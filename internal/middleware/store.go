package middleware

import (
	"context"

	"bookblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Connector hands out the database connection, dialing it on first use.
type Connector interface {
	EnsureConnected(ctx context.Context) (*gorm.DB, error)
}

// StoreRequired makes sure the database is reachable before a data route runs.
// Failures surface as STORE_UNAVAILABLE errors.
func StoreRequired(store Connector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := store.EnsureConnected(c.UserContext()); err != nil {
			return models.NewUnavailableError(err)
		}
		return c.Next()
	}
}
