package repository

import (
	"context"
	"testing"

	"classline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seed := func(id, name, email string, role models.UserRole, classID, className string) *models.User {
		user := &models.User{
			ID: id, DisplayName: name, Email: email, Role: role,
			ClassID: classID, ClassName: className, IsActive: true,
		}
		require.NoError(t, repo.Create(ctx, user))
		return user
	}

	hart := seed("t-hart", "Ms. Hart", "hart@school.edu", models.RoleTeacher, "", "")
	seed("s-anna", "Anna Berg", "anna@school.edu", models.RoleStudent, "class-5a", "5A")
	seed("s-omar", "Omar Lind", "omar@school.edu", models.RoleStudent, "class-5b", "5B")

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, hart.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ms. Hart", got.DisplayName)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
	})

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "anna@school.edu")
		require.NoError(t, err)
		assert.Equal(t, "s-anna", got.ID)
	})

	t.Run("ListOrdersByDisplayName", func(t *testing.T) {
		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "Anna Berg", users[0].DisplayName)
		assert.Equal(t, "Ms. Hart", users[1].DisplayName)
	})

	t.Run("ListByRole", func(t *testing.T) {
		students, err := repo.ListByRole(ctx, models.RoleStudent)
		require.NoError(t, err)
		assert.Len(t, students, 2)
	})

	t.Run("ListByClass", func(t *testing.T) {
		users, err := repo.ListByClass(ctx, "class-5a")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "s-anna", users[0].ID)
	})

	t.Run("SearchMatchesNameEmailAndClass", func(t *testing.T) {
		byName, err := repo.Search(ctx, "hart")
		require.NoError(t, err)
		assert.Len(t, byName, 1)

		byEmail, err := repo.Search(ctx, "omar@")
		require.NoError(t, err)
		assert.Len(t, byEmail, 1)

		byClass, err := repo.Search(ctx, "5a")
		require.NoError(t, err)
		require.Len(t, byClass, 1)
		assert.Equal(t, "s-anna", byClass[0].ID)
	})

	t.Run("SetActive", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, "s-omar", false))
		got, err := repo.GetByEmail(ctx, "omar@school.edu")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("TouchLastSeen", func(t *testing.T) {
		require.NoError(t, repo.TouchLastSeen(ctx, hart.ID))
		got, err := repo.GetByEmail(ctx, "hart@school.edu")
		require.NoError(t, err)
		require.NotNil(t, got.LastSeen)
	})

	t.Run("UpdateProfilePicture", func(t *testing.T) {
		require.NoError(t, repo.UpdateProfilePicture(ctx, hart.ID, "https://cdn.example/pic.webp"))
		got, err := repo.GetByEmail(ctx, "hart@school.edu")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/pic.webp", got.ProfilePicture)
	})
}
