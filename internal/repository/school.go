package repository

import (
	"context"
	"errors"

	"classline/internal/cache"
	"classline/internal/models"

	"gorm.io/gorm"
)

// ClassRepository defines persistence operations for classes.
type ClassRepository interface {
	GetByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Class, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	ListByClass(ctx context.Context, classID string) ([]models.Course, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository returns a new ClassRepository implementation.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	key := cache.ClassKey(id)

	err := cache.Aside(ctx, key, &class, cache.ClassTTL, func() error {
		if err := r.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Class", id)
			}
			return models.NewReadFailedError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Create(class).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Save(class).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateClass(ctx, class.ID)
	return nil
}

func (r *classRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Class{}, "id = ?", id).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateClass(ctx, id)
	return nil
}

func (r *classRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).Order("grade ASC, name ASC").Find(&classes).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return classes, nil
}

func (r *classRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("grade ASC, name ASC").
		Find(&classes).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return classes, nil
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository returns a new CourseRepository implementation.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	key := cache.CourseKey(id)

	err := cache.Aside(ctx, key, &course, cache.CourseTTL, func() error {
		if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Course", id)
			}
			return models.NewReadFailedError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	if err := r.db.WithContext(ctx).Save(course).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateCourse(ctx, course.ID)
	return nil
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateCourse(ctx, id)
	return nil
}

func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).Order("name ASC").Find(&courses).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return courses, nil
}

func (r *courseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("name ASC").
		Find(&courses).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return courses, nil
}

// ListByClass returns courses whose class list contains the given class. The
// class list is stored as a JSON array of quoted IDs, so a substring match on
// the quoted ID is exact.
func (r *courseRepository) ListByClass(ctx context.Context, classID string) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("class_ids LIKE ?", `%"`+classID+`"%`).
		Order("name ASC").
		Find(&courses).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return courses, nil
}
