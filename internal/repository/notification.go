package repository

import (
	"context"
	"errors"
	"time"

	"classline/internal/models"
	"classline/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
}

type notificationRepository struct {
	db      *gorm.DB
	repoLog *observability.RepoLogger
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{
		db:      db,
		repoLog: observability.NewRepoLogger("notifications"),
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		r.repoLog.LogError(ctx, err, "create")
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	start := time.Now()
	defer observability.ObserveQuery("create_batch", "notifications", start)

	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		r.repoLog.LogError(ctx, err, "create_batch")
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var notifications []models.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return models.NewWriteFailedError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.Notification{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return models.NewWriteFailedError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

// InvitationRepository defines persistence operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	List(ctx context.Context) ([]models.Invitation, error)
	UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error
}

type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository returns a new InvitationRepository implementation.
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if err := r.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return models.NewWriteFailedError(err)
	}
	return nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).First(&invitation, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invitation", token)
		}
		return nil, models.NewReadFailedError(err)
	}
	return &invitation, nil
}

func (r *invitationRepository) List(ctx context.Context) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&invitations).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return invitations, nil
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return models.NewWriteFailedError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Invitation", id)
	}
	return nil
}
