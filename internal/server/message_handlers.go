package server

import (
	"classline/internal/messaging"
	"classline/internal/models"

	"github.com/gofiber/fiber/v2"
)

type sendMessageRequest struct {
	Content     string            `json:"content"`
	Attachment  models.Attachment `json:"attachment"`
	RecipientID string            `json:"recipientId"`
	ClassID     string            `json:"classId"`
	CourseID    string            `json:"courseId"`
}

// audience validates that exactly one target is set and builds the Audience.
func (r *sendMessageRequest) audience() (messaging.Audience, error) {
	targets := 0
	var audience messaging.Audience
	if r.RecipientID != "" {
		targets++
		audience = messaging.Direct(r.RecipientID)
	}
	if r.ClassID != "" {
		targets++
		audience = messaging.Class(r.ClassID)
	}
	if r.CourseID != "" {
		targets++
		audience = messaging.Course(r.CourseID)
	}
	if targets != 1 {
		return messaging.Audience{}, models.NewValidationError(
			"Exactly one of recipientId, classId, courseId must be set")
	}
	return audience, nil
}

// SendMessage handles POST /api/messages
// @Summary Send a message
// @Description Send a message to a user, class, or course audience
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body sendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	audience, err := req.audience()
	if err != nil {
		return respondError(c, err)
	}

	message, err := s.messagingSvc.Send(c.Context(), currentUserID(c), req.Content, req.Attachment, audience)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetConversations handles GET /api/conversations
// @Summary List my conversations
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Conversation
// @Router /conversations [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.messagingSvc.ListConversations(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversations)
}

// GetConversation handles GET /api/conversations/:id
// @Summary Get one conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Conversation
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /conversations/{id} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	conversation, err := s.messagingSvc.GetConversation(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversation)
}

// GetConversationMessages handles GET /api/conversations/:id/messages
// @Summary List a conversation's messages oldest first
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Message
// @Failure 403 {object} object{error=string}
// @Router /conversations/{id}/messages [get]
func (s *Server) GetConversationMessages(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	messages, err := s.messagingSvc.ListMessages(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// MarkConversationRead handles POST /api/conversations/:id/read
// @Summary Mark a conversation read
// @Description Zero the caller's unread counter for the conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool}
// @Router /conversations/{id}/read [post]
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	if err := s.messagingSvc.MarkRead(c.Context(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetUnreadCount handles GET /api/conversations/:id/unread
// @Summary Get my unread counter for a conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{unreadCount=int}
// @Router /conversations/{id}/unread [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	id, ok := parseStringID(c, "id")
	if !ok {
		return nil
	}
	count, err := s.messagingSvc.UnreadCount(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unreadCount": count})
}

// SearchMessages handles GET /api/messages/search
// @Summary Search messages by content or sender
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search term"
// @Success 200 {array} models.Message
// @Router /messages/search [get]
func (s *Server) SearchMessages(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Query parameter q is required"))
	}

	results, err := s.messageRepo.Search(c.Context(), query, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	// Search runs over the whole corpus; filter to what the caller may see.
	userID := currentUserID(c)
	visible := make([]models.Message, 0, len(results))
	for _, m := range results {
		if m.VisibleTo(userID) {
			visible = append(visible, m)
		}
	}
	return c.JSON(visible)
}
