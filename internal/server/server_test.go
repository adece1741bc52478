package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"classline/internal/config"
	"classline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	os.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Class{}, &models.Course{},
		&models.Message{}, &models.Conversation{}, &models.ConversationMember{},
		&models.Notification{}, &models.Invitation{},
	))

	cfg := &config.Config{
		JWTSecret: "test-secret-test-secret-test-secret",
		Port:      "0",
		Env:       "test",
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func seedUser(t *testing.T, s *Server, id, name string, role models.UserRole, classID string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           id,
		Email:        id + "@school.edu",
		DisplayName:  name,
		Role:         role,
		PasswordHash: string(hashed),
		ClassID:      classID,
		IsActive:     true,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func bearerToken(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestAuthEndpoints(t *testing.T) {
	s, app := newTestServer(t)

	t.Run("RegisterAndLogin", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":       "hart@school.edu",
			"password":    "password123",
			"displayName": "Ms. Hart",
			"role":        "teacher",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var created struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeBody(t, resp, &created)
		assert.NotEmpty(t, created.Token)
		assert.Equal(t, models.RoleTeacher, created.User.Role)

		resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "hart@school.edu",
			"password": "password123",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "hart@school.edu",
			"password": "password123",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("AdminSelfRegistrationRejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "sneaky@school.edu",
			"password": "password123",
			"role":     "admin",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("WrongPassword", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "hart@school.edu",
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("DeactivatedAccountCannotLogin", func(t *testing.T) {
		user := seedUser(t, s, uuid.NewString(), "Gone", models.RoleStudent, "")
		require.NoError(t, s.db.Model(user).Update("is_active", false).Error)

		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    user.Email,
			"password": "password123",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("ProtectedRouteRequiresToken", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/conversations", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestMessagingEndpoints(t *testing.T) {
	s, app := newTestServer(t)
	alice := seedUser(t, s, "alice-"+uuid.NewString(), "Alice", models.RoleTeacher, "")
	bob := seedUser(t, s, "bob-"+uuid.NewString(), "Bob", models.RoleStudent, "")
	carol := seedUser(t, s, "carol-"+uuid.NewString(), "Carol", models.RoleStudent, "")
	aliceAuth := bearerToken(t, s, alice)
	bobAuth := bearerToken(t, s, bob)
	carolAuth := bearerToken(t, s, carol)

	var conversationID string

	t.Run("SendDirectMessage", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/messages", aliceAuth, map[string]any{
			"content":     "homework reminder",
			"recipientId": bob.ID,
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var msg models.Message
		decodeBody(t, resp, &msg)
		assert.Equal(t, "homework reminder", msg.Content)
		conversationID = msg.ConversationID
		require.NotEmpty(t, conversationID)
	})

	t.Run("EmptyMessageRejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/messages", aliceAuth, map[string]any{
			"content":     "   ",
			"recipientId": bob.ID,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("AmbiguousAudienceRejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/messages", aliceAuth, map[string]any{
			"content":     "hello",
			"recipientId": bob.ID,
			"classId":     "5a",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("UnknownRecipientIs404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/messages", aliceAuth, map[string]any{
			"content":     "hello",
			"recipientId": uuid.NewString(),
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("RecipientSeesConversationWithUnread", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/conversations", bobAuth, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var conversations []models.Conversation
		decodeBody(t, resp, &conversations)
		require.Len(t, conversations, 1)
		assert.Equal(t, conversationID, conversations[0].ID)
		assert.Equal(t, 1, conversations[0].UnreadCounts[bob.ID])
	})

	t.Run("MarkReadZeroesCounter", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/conversations/"+conversationID+"/read", bobAuth, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, app, http.MethodGet, "/api/conversations/"+conversationID+"/unread", bobAuth, nil)
		var unread struct {
			UnreadCount int `json:"unreadCount"`
		}
		decodeBody(t, resp, &unread)
		assert.Equal(t, 0, unread.UnreadCount)
	})

	t.Run("OutsiderCannotReadConversation", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/conversations/"+conversationID+"/messages", carolAuth, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("SearchIsScopedToParticipants", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/messages/search?q=homework", carolAuth, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var results []models.Message
		decodeBody(t, resp, &results)
		assert.Empty(t, results)

		resp = doJSON(t, app, http.MethodGet, "/api/messages/search?q=homework", bobAuth, nil)
		decodeBody(t, resp, &results)
		assert.Len(t, results, 1)
	})

	t.Run("DirectSendCreatesNotification", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/notifications", bobAuth, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var notes []models.Notification
		decodeBody(t, resp, &notes)
		require.NotEmpty(t, notes)
		assert.Equal(t, models.NotifyMessage, notes[0].Type)
	})
}

func TestAdminEndpoints(t *testing.T) {
	s, app := newTestServer(t)
	admin := seedUser(t, s, "admin-"+uuid.NewString(), "Admin", models.RoleAdmin, "")
	student := seedUser(t, s, "student-"+uuid.NewString(), "Student", models.RoleStudent, "")
	adminAuth := bearerToken(t, s, admin)
	studentAuth := bearerToken(t, s, student)

	t.Run("AdminRoutesRejectNonAdmins", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/admin/messages", studentAuth, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("ModerationDeleteLeavesCounters", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/messages", adminAuth, map[string]any{
			"content":     "to be removed",
			"recipientId": student.ID,
		})
		var msg models.Message
		decodeBody(t, resp, &msg)

		resp = doJSON(t, app, http.MethodDelete, "/api/admin/messages/"+msg.ID, adminAuth, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		// The message is gone but the recipient's counter stays as it was.
		resp = doJSON(t, app, http.MethodGet, "/api/conversations/"+msg.ConversationID+"/unread", studentAuth, nil)
		var unread struct {
			UnreadCount int `json:"unreadCount"`
		}
		decodeBody(t, resp, &unread)
		assert.Equal(t, 1, unread.UnreadCount)
	})

	t.Run("InvitationLifecycle", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/admin/invitations", adminAuth, map[string]string{
			"email": "new.teacher@school.edu",
			"role":  "teacher",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var invitation models.Invitation
		decodeBody(t, resp, &invitation)
		require.NotEmpty(t, invitation.Token)

		resp = doJSON(t, app, http.MethodPost, "/api/invitations/"+invitation.Token+"/accept", "", map[string]string{
			"password":    "password123",
			"displayName": "New Teacher",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var accepted struct {
			User models.User `json:"user"`
		}
		decodeBody(t, resp, &accepted)
		assert.Equal(t, models.RoleTeacher, accepted.User.Role)

		// A consumed invitation cannot be accepted twice.
		resp = doJSON(t, app, http.MethodPost, "/api/invitations/"+invitation.Token+"/accept", "", map[string]string{
			"password": "password123",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("ClassCRUD", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/admin/classes", adminAuth, map[string]string{
			"name":      "5A",
			"teacherId": admin.ID,
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var class models.Class
		decodeBody(t, resp, &class)
		require.NotEmpty(t, class.ID)

		resp = doJSON(t, app, http.MethodGet, "/api/admin/classes", adminAuth, nil)
		var classes []models.Class
		decodeBody(t, resp, &classes)
		assert.Len(t, classes, 1)

		resp = doJSON(t, app, http.MethodDelete, "/api/admin/classes/"+class.ID, adminAuth, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestHealthEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ready struct {
		Status string `json:"status"`
		Checks struct {
			Database string `json:"database"`
			Redis    string `json:"redis"`
		} `json:"checks"`
	}
	decodeBody(t, resp, &ready)
	assert.Equal(t, "healthy", ready.Checks.Database)
	assert.Equal(t, "unavailable", ready.Checks.Redis)
}
