// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"classline/internal/cache"
	"classline/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	ListByClass(ctx context.Context, classID string) ([]models.User, error)
	Search(ctx context.Context, term string) ([]models.User, error)
	UpdateProfilePicture(ctx context.Context, id, url string) error
	TouchLastSeen(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewReadFailedError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", email)
		}
		return nil, models.NewReadFailedError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("display_name ASC").Find(&users).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("display_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return users, nil
}

func (r *userRepository) ListByClass(ctx context.Context, classID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("display_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return users, nil
}

// Search does a full scan with substring matching over display name, email
// and class name. The user table is school-sized; no index needed.
func (r *userRepository) Search(ctx context.Context, term string) ([]models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	matched := make([]models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.DisplayName), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) ||
			(u.Role == models.RoleStudent && strings.Contains(strings.ToLower(u.ClassName), needle)) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id, url string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("profile_picture", url).Error
	if err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen", now).Error
	if err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		return models.NewWriteFailedError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
