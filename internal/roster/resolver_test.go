package roster

import (
	"context"
	"testing"

	"classline/internal/models"
	"classline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupResolver(t *testing.T) (Resolver, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Class{}, &models.Course{}))

	users := repository.NewUserRepository(db)
	classes := repository.NewClassRepository(db)
	courses := repository.NewCourseRepository(db)
	return NewResolver(users, classes, courses), db
}

func seedSchool(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []interface{}{
		&models.User{ID: "teacher-1", Email: "hart@school.edu", DisplayName: "Ms. Hart", Role: models.RoleTeacher},
		&models.User{ID: "teacher-2", Email: "ode@school.edu", DisplayName: "Mr. Ode", Role: models.RoleTeacher},
		&models.User{ID: "student-1", Email: "s1@school.edu", DisplayName: "Student One", Role: models.RoleStudent, ClassID: "class-5a"},
		&models.User{ID: "student-2", Email: "s2@school.edu", DisplayName: "Student Two", Role: models.RoleStudent, ClassID: "class-5a"},
		&models.User{ID: "student-3", Email: "s3@school.edu", DisplayName: "Student Three", Role: models.RoleStudent, ClassID: "class-5b"},
		&models.Class{ID: "class-5a", Name: "5A", TeacherID: "teacher-1", TeacherName: "Ms. Hart"},
		&models.Class{ID: "class-5b", Name: "5B", TeacherID: "teacher-1", TeacherName: "Ms. Hart"},
		&models.Course{ID: "course-music", Name: "Music", TeacherID: "teacher-2", ClassIDs: []string{"class-5a", "class-5b"}},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

func memberIDs(roster []models.User) []string {
	ids := make([]string, len(roster))
	for i, u := range roster {
		ids[i] = u.ID
	}
	return ids
}

func TestResolveClassRoster(t *testing.T) {
	resolver, db := setupResolver(t)
	seedSchool(t, db)
	ctx := context.Background()

	t.Run("StudentsPlusClassTeacherPlusCourseTeachers", func(t *testing.T) {
		roster, err := resolver.ResolveClassRoster(ctx, "class-5a")
		require.NoError(t, err)
		assert.Equal(t, []string{"student-1", "student-2", "teacher-1", "teacher-2"}, memberIDs(roster))
	})

	t.Run("SortedAndDeduplicated", func(t *testing.T) {
		// teacher-1 owns both classes and could enter the set twice.
		roster, err := resolver.ResolveClassRoster(ctx, "class-5b")
		require.NoError(t, err)
		assert.Equal(t, []string{"student-3", "teacher-1", "teacher-2"}, memberIDs(roster))
	})

	t.Run("MissingClassIsEmptyNotError", func(t *testing.T) {
		roster, err := resolver.ResolveClassRoster(ctx, "class-nope")
		require.NoError(t, err)
		assert.Empty(t, roster)
	})
}

func TestResolveCourseRoster(t *testing.T) {
	resolver, db := setupResolver(t)
	seedSchool(t, db)
	ctx := context.Background()

	t.Run("CourseTeacherPlusAllClassStudents", func(t *testing.T) {
		roster, err := resolver.ResolveCourseRoster(ctx, "course-music")
		require.NoError(t, err)
		assert.Equal(t, []string{"student-1", "student-2", "student-3", "teacher-2"}, memberIDs(roster))
	})

	t.Run("MissingCourseIsEmptyNotError", func(t *testing.T) {
		roster, err := resolver.ResolveCourseRoster(ctx, "course-nope")
		require.NoError(t, err)
		assert.Empty(t, roster)
	})

	t.Run("DanglingTeacherReferenceSkipped", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Course{ID: "course-art", Name: "Art", TeacherID: "gone", ClassIDs: []string{"class-5b"}}).Error)

		roster, err := resolver.ResolveCourseRoster(ctx, "course-art")
		require.NoError(t, err)
		assert.Equal(t, []string{"student-3"}, memberIDs(roster))
	})
}
