package server

import (
	"classline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminListMessages handles GET /api/admin/messages
// @Summary List all messages for moderation review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Message
// @Router /admin/messages [get]
func (s *Server) AdminListMessages(c *fiber.Ctx) error {
	messages, err := s.messageRepo.ListAll(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// AdminDeleteMessage handles DELETE /api/admin/messages/:id
// @Summary Hard-delete a message
// @Description Removes the message content permanently. Conversation previews
// @Description and unread counters are not retracted.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} object{error=string}
// @Router /admin/messages/{id} [delete]
func (s *Server) AdminDeleteMessage(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	if err := s.messageRepo.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// AdminSetUserActive handles POST /api/admin/users/:id/active
// @Summary Activate or deactivate a user account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{active=bool} true "Activation state"
// @Success 200 {object} object{success=bool}
// @Router /admin/users/{id}/active [post]
func (s *Server) AdminSetUserActive(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userRepo.SetActive(c.Context(), id, req.Active); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// CreateClass handles POST /api/admin/classes
// @Summary Create a class
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Class
// @Router /admin/classes [post]
func (s *Server) CreateClass(c *fiber.Ctx) error {
	var class models.Class
	if err := c.BodyParser(&class); err != nil || class.Name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A class name is required"))
	}
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if err := s.classRepo.Create(c.Context(), &class); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(class)
}

// UpdateClass handles PUT /api/admin/classes/:id
// @Summary Update a class
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Class
// @Router /admin/classes/{id} [put]
func (s *Server) UpdateClass(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	var class models.Class
	if err := c.BodyParser(&class); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	class.ID = id
	if err := s.classRepo.Update(c.Context(), &class); err != nil {
		return respondError(c, err)
	}
	return c.JSON(class)
}

// DeleteClass handles DELETE /api/admin/classes/:id
// @Summary Delete a class
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool}
// @Router /admin/classes/{id} [delete]
func (s *Server) DeleteClass(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	if err := s.classRepo.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListClasses handles GET /api/admin/classes
// @Summary List classes
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Class
// @Router /admin/classes [get]
func (s *Server) ListClasses(c *fiber.Ctx) error {
	classes, err := s.classRepo.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(classes)
}

// CreateCourse handles POST /api/admin/courses
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Course
// @Router /admin/courses [post]
func (s *Server) CreateCourse(c *fiber.Ctx) error {
	var course models.Course
	if err := c.BodyParser(&course); err != nil || course.Name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A course name is required"))
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if err := s.courseRepo.Create(c.Context(), &course); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// UpdateCourse handles PUT /api/admin/courses/:id
// @Summary Update a course
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Course
// @Router /admin/courses/{id} [put]
func (s *Server) UpdateCourse(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	course.ID = id
	if err := s.courseRepo.Update(c.Context(), &course); err != nil {
		return respondError(c, err)
	}
	return c.JSON(course)
}

// DeleteCourse handles DELETE /api/admin/courses/:id
// @Summary Delete a course
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool}
// @Router /admin/courses/{id} [delete]
func (s *Server) DeleteCourse(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	if err := s.courseRepo.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListCourses handles GET /api/admin/courses
// @Summary List courses
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Course
// @Router /admin/courses [get]
func (s *Server) ListCourses(c *fiber.Ctx) error {
	courses, err := s.courseRepo.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(courses)
}
