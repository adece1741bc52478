package server

import (
	"classline/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetContacts handles GET /api/contacts
// @Summary List contacts
// @Description List users, optionally filtered by role or class
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param classId query string false "Filter by class"
// @Success 200 {array} models.User
// @Router /contacts [get]
func (s *Server) GetContacts(c *fiber.Ctx) error {
	ctx := c.Context()

	var (
		users []models.User
		err   error
	)
	switch {
	case c.Query("role") != "":
		users, err = s.userRepo.ListByRole(ctx, models.UserRole(c.Query("role")))
	case c.Query("classId") != "":
		users, err = s.userRepo.ListByClass(ctx, c.Query("classId"))
	default:
		users, err = s.userRepo.List(ctx)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SearchContacts handles GET /api/contacts/search
// @Summary Search contacts
// @Description Substring search over display name, email, and class name
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search term"
// @Success 200 {array} models.User
// @Router /contacts/search [get]
func (s *Server) SearchContacts(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Query parameter q is required"))
	}

	users, err := s.userRepo.Search(c.Context(), query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
