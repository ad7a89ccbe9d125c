package server

import (
	"bookblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter as a positive uint. Malformed ids are
// reported as not found, since no record can carry them.
func parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError(resource, c.Params(param))
	}
	return uint(id), nil
}
