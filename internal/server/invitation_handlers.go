package server

import (
	"strings"
	"time"

	"classline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation handles POST /api/admin/invitations
// @Summary Invite a user by email
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{email=string,role=string,classId=string} true "Invitation"
// @Success 201 {object} models.Invitation
// @Router /admin/invitations [post]
func (s *Server) CreateInvitation(c *fiber.Ctx) error {
	var req struct {
		Email   string `json:"email"`
		Role    string `json:"role"`
		ClassID string `json:"classId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A valid email is required"))
	}
	role := models.UserRole(req.Role)
	switch role {
	case models.RoleStudent, models.RoleTeacher, models.RoleStaff, models.RoleAdmin:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid role"))
	}

	now := time.Now().UTC()
	invitation := &models.Invitation{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Role:      role,
		ClassID:   req.ClassID,
		Token:     uuid.NewString(),
		Status:    models.InvitationPending,
		CreatedBy: currentUserID(c),
		CreatedAt: now,
		ExpiresAt: now.Add(invitationTTL),
	}
	if err := s.invitationRepo.Create(c.Context(), invitation); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invitation)
}

// ListInvitations handles GET /api/admin/invitations
// @Summary List invitations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Invitation
// @Router /admin/invitations [get]
func (s *Server) ListInvitations(c *fiber.Ctx) error {
	invitations, err := s.invitationRepo.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invitations)
}

// GetInvitation handles GET /api/invitations/:token
// @Summary Look up an invitation by token
// @Tags invitations
// @Produce json
// @Success 200 {object} models.Invitation
// @Failure 404 {object} object{error=string}
// @Router /invitations/{token} [get]
func (s *Server) GetInvitation(c *fiber.Ctx) error {
	token, ok := parseStringID(c, "token")
	if !ok {
		return nil
	}
	invitation, err := s.invitationRepo.GetByToken(c.Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.expireIfDue(c, invitation); err != nil {
		return respondError(c, err)
	}
	return c.JSON(invitation)
}

// AcceptInvitation handles POST /api/invitations/:token/accept
// @Summary Accept an invitation and create the account
// @Tags invitations
// @Accept json
// @Produce json
// @Param request body object{password=string,displayName=string} true "Account details"
// @Success 201 {object} object{user=models.User}
// @Failure 409 {object} object{error=string}
// @Router /invitations/{token}/accept [post]
func (s *Server) AcceptInvitation(c *fiber.Ctx) error {
	token, ok := parseStringID(c, "token")
	if !ok {
		return nil
	}
	var req struct {
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.Password) < 8 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Password must be at least 8 characters"))
	}

	invitation, err := s.invitationRepo.GetByToken(c.Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.expireIfDue(c, invitation); err != nil {
		return respondError(c, err)
	}
	if invitation.Status != models.InvitationPending {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("Invitation is no longer valid"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        invitation.Email,
		DisplayName:  req.DisplayName,
		Role:         invitation.Role,
		PasswordHash: string(hashed),
		ClassID:      invitation.ClassID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		return respondError(c, err)
	}
	if err := s.invitationRepo.UpdateStatus(c.Context(), invitation.ID, models.InvitationAccepted); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// expireIfDue transitions a pending invitation past its deadline to expired.
func (s *Server) expireIfDue(c *fiber.Ctx, invitation *models.Invitation) error {
	if invitation.Status != models.InvitationPending || time.Now().UTC().Before(invitation.ExpiresAt) {
		return nil
	}
	invitation.Status = models.InvitationExpired
	return s.invitationRepo.UpdateStatus(c.Context(), invitation.ID, models.InvitationExpired)
}
