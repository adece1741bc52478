// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"classline/internal/models"

	"github.com/gofiber/fiber/v2"
)

// currentUserID returns the authenticated user's ID placed in locals by the
// auth middleware.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

// respondError maps an application error to its HTTP status and writes the
// standard error envelope.
func respondError(c *fiber.Ctx, err error) error {
	code := models.CodeOf(err)
	return models.RespondWithError(c, models.StatusForCode(code), err)
}

// parseStringID extracts a non-empty route parameter. On failure it writes a
// 400 response and returns false.
func parseStringID(c *fiber.Ctx, param string) (string, bool) {
	id := c.Params(param)
	if id == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing "+param))
		return "", false
	}
	return id, true
}
