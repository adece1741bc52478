package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"classline/internal/models"
	"classline/internal/observability"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	ListAll(ctx context.Context) ([]models.Message, error)
	Search(ctx context.Context, query string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type messageRepository struct {
	db      *gorm.DB
	repoLog *observability.RepoLogger
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{
		db:      db,
		repoLog: observability.NewRepoLogger("messages"),
	}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	start := time.Now()
	defer observability.ObserveQuery("create", "messages", start)

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		r.repoLog.LogError(ctx, err, "create")
		return models.NewWriteFailedError(err)
	}
	r.repoLog.LogCreate(ctx, map[string]interface{}{
		"message_id":      message.ID,
		"conversation_id": message.ConversationID,
		"type":            message.Type,
	})
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewReadFailedError(err)
	}
	return &message, nil
}

// ListByConversation returns the conversation's messages oldest first, the
// order clients render them in.
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	start := time.Now()
	defer observability.ObserveQuery("list", "messages", start)

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return messages, nil
}

// Search does case-insensitive substring matching over content and sender
// name. Message volume is school-sized; the LIKE scan is fine without a
// full-text index.
func (r *messageRepository) Search(ctx context.Context, query string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("LOWER(content) LIKE ? OR LOWER(sender_name) LIKE ?", pattern, pattern).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		r.repoLog.LogError(ctx, result.Error, "mark_read")
		return models.NewWriteFailedError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	return nil
}

// Delete removes the message row permanently. Conversation summaries and
// unread counters are left as they were; moderation removes content, it does
// not rewrite history.
func (r *messageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if result.Error != nil {
		r.repoLog.LogError(ctx, result.Error, "delete")
		return models.NewWriteFailedError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	r.repoLog.LogDelete(ctx, map[string]interface{}{"message_id": id})
	return nil
}
