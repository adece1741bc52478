// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"classline/internal/messaging"
	"classline/internal/models"
	"classline/internal/repository"
	"classline/internal/roster"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumClasses       int
	StudentsPerClass int
	NumMessages      int
	ShouldClean      bool
}

var (
	classNames = []string{
		"1A", "1B", "2A", "2B", "3A", "3B", "4A", "4B", "5A", "5B", "6A", "6B",
	}

	courseSubjects = []string{
		"Music", "Art", "Physical Education", "Computer Science", "Drama",
		"French", "Spanish", "Choir", "Robotics", "Chess",
	}

	messageTemplates = []string{
		"Please remember to bring your %s tomorrow.",
		"Great work in class today on %s!",
		"The %s assignment deadline moved to Friday.",
		"Quick reminder: %s practice is cancelled this week.",
		"Could you check the %s worksheet I handed out?",
		"We will cover %s in next week's lesson.",
	}

	messageTopics = []string{
		"fractions", "the science project", "reading journals", "the field trip form",
		"spelling lists", "the group presentation", "gym kit", "recorder practice",
	}
)

// nopPublisher satisfies messaging.EventPublisher for offline seeding,
// where no realtime listeners exist yet.
type nopPublisher struct{}

func (nopPublisher) ConversationChanged(context.Context, string, []string) {}

// Seed populates the database with a small school: classes, courses,
// teachers, students, and conversation history with realistic unread state.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d classes, %d students each, %d messages...",
		opts.NumClasses, opts.StudentsPerClass, opts.NumMessages)

	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	ctx := context.Background()
	svc := newSeedService(db)

	admin, err := createAdmin(db)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("✓ Admin account ready (%s)", admin.Email)

	classes, teachers, err := createClasses(db, opts.NumClasses)
	if err != nil {
		return fmt.Errorf("failed to create classes: %w", err)
	}
	log.Printf("✓ %d classes with %d class teachers created", len(classes), len(teachers))

	courses, courseTeachers, err := createCourses(db, classes)
	if err != nil {
		return fmt.Errorf("failed to create courses: %w", err)
	}
	log.Printf("✓ %d courses with %d course teachers created", len(courses), len(courseTeachers))

	students, err := createStudents(db, classes, opts.StudentsPerClass)
	if err != nil {
		return fmt.Errorf("failed to create students: %w", err)
	}
	log.Printf("✓ %d students created", len(students))

	teachers = append(teachers, courseTeachers...)
	sent, err := createMessages(ctx, svc, teachers, students, classes, courses, opts.NumMessages)
	if err != nil {
		return fmt.Errorf("failed to create messages: %w", err)
	}
	log.Printf("✓ %d messages sent across direct, class, and course conversations", sent)

	log.Println("🎉 Database seeding completed successfully!")
	log.Println("📧 All seeded accounts have the password: password123")
	return nil
}

// newSeedService wires a messaging service straight onto the database so
// seeded history goes through the same fan-out and unread accounting as
// production traffic.
func newSeedService(db *gorm.DB) *messaging.Service {
	users := repository.NewUserRepository(db)
	classes := repository.NewClassRepository(db)
	courses := repository.NewCourseRepository(db)
	return messaging.NewService(
		repository.NewMessageRepository(db),
		repository.NewConversationRepository(db),
		repository.NewNotificationRepository(db),
		users,
		classes,
		courses,
		roster.NewResolver(users, classes, courses),
		nopPublisher{},
	)
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []string{
		"notifications", "invitations", "conversation_members", "conversations",
		"messages", "users", "courses", "classes",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func hashedPassword() string {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	return string(hashed)
}

func createAdmin(db *gorm.DB) (*models.User, error) {
	admin := &models.User{
		ID:           uuid.NewString(),
		Email:        "admin@classline.local",
		DisplayName:  "School Office",
		Role:         models.RoleAdmin,
		PasswordHash: hashedPassword(),
		IsActive:     true,
	}
	return admin, db.Create(admin).Error
}

func createTeacher(db *gorm.DB) (*models.User, error) {
	teacher := &models.User{
		ID:           uuid.NewString(),
		Email:        gofakeit.Email(),
		DisplayName:  gofakeit.Name(),
		Role:         models.RoleTeacher,
		PasswordHash: hashedPassword(),
		IsActive:     true,
	}
	return teacher, db.Create(teacher).Error
}

func createClasses(db *gorm.DB, count int) ([]models.Class, []models.User, error) {
	if count > len(classNames) {
		count = len(classNames)
	}
	classes := make([]models.Class, 0, count)
	teachers := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		teacher, err := createTeacher(db)
		if err != nil {
			return nil, nil, err
		}
		class := models.Class{
			ID:        uuid.NewString(),
			Name:      classNames[i],
			TeacherID: teacher.ID,
		}
		if err := db.Create(&class).Error; err != nil {
			return nil, nil, err
		}
		classes = append(classes, class)
		teachers = append(teachers, *teacher)
	}
	return classes, teachers, nil
}

func createCourses(db *gorm.DB, classes []models.Class) ([]models.Course, []models.User, error) {
	// Roughly one elective per two classes, each spanning two classes.
	count := len(classes)/2 + 1
	if count > len(courseSubjects) {
		count = len(courseSubjects)
	}
	courses := make([]models.Course, 0, count)
	teachers := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		teacher, err := createTeacher(db)
		if err != nil {
			return nil, nil, err
		}
		classIDs := make([]string, 0, 2)
		for j := 0; j < 2 && i*2+j < len(classes); j++ {
			classIDs = append(classIDs, classes[i*2+j].ID)
		}
		course := models.Course{
			ID:        uuid.NewString(),
			Name:      courseSubjects[i],
			TeacherID: teacher.ID,
			ClassIDs:  classIDs,
		}
		if err := db.Create(&course).Error; err != nil {
			return nil, nil, err
		}
		courses = append(courses, course)
		teachers = append(teachers, *teacher)
	}
	return courses, teachers, nil
}

func createStudents(db *gorm.DB, classes []models.Class, perClass int) ([]models.User, error) {
	students := make([]models.User, 0, len(classes)*perClass)
	for _, class := range classes {
		for i := 0; i < perClass; i++ {
			student := models.User{
				ID:           uuid.NewString(),
				Email:        gofakeit.Email(),
				DisplayName:  gofakeit.Name(),
				Role:         models.RoleStudent,
				PasswordHash: hashedPassword(),
				ClassID:      class.ID,
				IsActive:     true,
			}
			if err := db.Create(&student).Error; err != nil {
				return nil, err
			}
			students = append(students, student)
		}
	}
	return students, nil
}

func randomContent(r *rand.Rand) string {
	template := messageTemplates[r.Intn(len(messageTemplates))]
	return fmt.Sprintf(template, messageTopics[r.Intn(len(messageTopics))])
}

// createMessages sends history through the messaging service so conversation
// summaries and unread counters come out exactly as live traffic would leave
// them. Roughly half the messages are direct, the rest split between class
// and course announcements.
func createMessages(
	ctx context.Context,
	svc *messaging.Service,
	teachers, students []models.User,
	classes []models.Class,
	courses []models.Course,
	count int,
) (int, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	sent := 0
	for i := 0; i < count; i++ {
		teacher := teachers[r.Intn(len(teachers))]
		content := randomContent(r)

		var audience messaging.Audience
		switch r.Intn(4) {
		case 0:
			audience = messaging.Class(classes[r.Intn(len(classes))].ID)
		case 1:
			audience = messaging.Course(courses[r.Intn(len(courses))].ID)
		default:
			audience = messaging.Direct(students[r.Intn(len(students))].ID)
		}

		if _, err := svc.Send(ctx, teacher.ID, content, models.Attachment{}, audience); err != nil {
			return sent, err
		}
		sent++

		// A slice of students reply to their direct threads.
		if audience.Kind == models.TypeDirect && r.Intn(3) == 0 {
			reply := messaging.Direct(teacher.ID)
			if _, err := svc.Send(ctx, audience.RecipientID, "Thanks, got it!", models.Attachment{}, reply); err != nil {
				return sent, err
			}
			sent++
		}
	}
	return sent, nil
}
