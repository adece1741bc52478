package repository

import (
	"context"
	"errors"
	"time"

	"classline/internal/models"
	"classline/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository defines persistence operations for conversation
// summaries and per-participant unread counters.
type ConversationRepository interface {
	// Upsert applies one send to the summary record: create-or-merge of the
	// summary row plus unread increments for every participant except the
	// sender. Every statement is a single atomic create-or-update, so
	// concurrent senders to the same (possibly brand-new) conversation never
	// lose increments.
	Upsert(ctx context.Context, conv *models.Conversation, senderID string) error

	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)
}

type conversationRepository struct {
	db      *gorm.DB
	repoLog *observability.RepoLogger
}

// NewConversationRepository returns a new ConversationRepository implementation.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{
		db:      db,
		repoLog: observability.NewRepoLogger("conversations"),
	}
}

func (r *conversationRepository) Upsert(ctx context.Context, conv *models.Conversation, senderID string) error {
	start := time.Now()
	defer observability.ObserveQuery("upsert", "conversations", start)

	// Summary row: INSERT ... ON CONFLICT (id) DO UPDATE overwriting the
	// denormalized fields with the latest send. One statement, no
	// read-then-write window.
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type",
			"participants",
			"participant_names",
			"last_message",
			"last_message_time",
			"class_name",
			"course_id",
			"course_name",
			"updated_at",
		}),
	}).Create(conv).Error
	if err != nil {
		r.repoLog.LogError(ctx, err, "upsert")
		return models.NewWriteFailedError(err)
	}

	// Sender's member row: created at zero, existing count left untouched.
	sender := models.ConversationMember{
		ConversationID: conv.ID,
		UserID:         senderID,
		UnreadCount:    0,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&sender).Error
	if err != nil {
		r.repoLog.LogError(ctx, err, "upsert")
		return models.NewWriteFailedError(err)
	}

	// Every other participant gets exactly one commutative increment. The
	// increment references the stored value, never a count read by this
	// client, so interleaved senders all land.
	members := make([]models.ConversationMember, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p == senderID {
			continue
		}
		members = append(members, models.ConversationMember{
			ConversationID: conv.ID,
			UserID:         p,
			UnreadCount:    1,
		})
	}
	if len(members) > 0 {
		err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"unread_count": gorm.Expr("conversation_members.unread_count + 1"),
			}),
		}).Create(&members).Error
		if err != nil {
			r.repoLog.LogError(ctx, err, "upsert")
			return models.NewWriteFailedError(err)
		}
		observability.UnreadIncrements.Add(float64(len(members)))
	}

	r.repoLog.LogUpdate(ctx, map[string]interface{}{
		"conversation_id": conv.ID,
		"participants":    len(conv.Participants),
	})
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).First(&conv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewReadFailedError(err)
	}

	if err := r.attachUnreadCounts(ctx, []*models.Conversation{&conv}); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_members cm ON cm.conversation_id = conversations.id").
		Where("cm.user_id = ?", userID).
		Order("conversations.last_message_time DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, models.NewReadFailedError(err)
	}

	refs := make([]*models.Conversation, len(conversations))
	for i := range conversations {
		refs[i] = &conversations[i]
	}
	if err := r.attachUnreadCounts(ctx, refs); err != nil {
		return nil, err
	}
	return conversations, nil
}

// attachUnreadCounts assembles the unreadCounts map from member rows.
func (r *conversationRepository) attachUnreadCounts(ctx context.Context, conversations []*models.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}
	ids := make([]string, len(conversations))
	byID := make(map[string]*models.Conversation, len(conversations))
	for i, c := range conversations {
		ids[i] = c.ID
		byID[c.ID] = c
		c.UnreadCounts = make(map[string]int)
	}

	var members []models.ConversationMember
	err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Find(&members).Error
	if err != nil {
		return models.NewReadFailedError(err)
	}
	for _, m := range members {
		if c, ok := byID[m.ConversationID]; ok {
			c.UnreadCounts[m.UserID] = m.UnreadCount
		}
	}
	return nil
}

// MarkRead zeroes one participant's counter. A direct set, not a decrement:
// the caller cannot know how many messages were actually seen. Upserting keeps
// the operation idempotent even before the member row exists.
func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	now := time.Now().UTC()
	member := models.ConversationMember{
		ConversationID: conversationID,
		UserID:         userID,
		UnreadCount:    0,
		LastReadAt:     &now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"unread_count": 0,
			"last_read_at": now,
		}),
	}).Create(&member).Error
	if err != nil {
		r.repoLog.LogError(ctx, err, "mark_read")
		return models.NewWriteFailedError(err)
	}
	r.repoLog.LogUpdate(ctx, map[string]interface{}{
		"conversation_id": conversationID,
		"user_id":         userID,
		"unread_count":    0,
	})
	return nil
}

func (r *conversationRepository) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	var member models.ConversationMember
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Absent row means zero unread.
			return 0, nil
		}
		return 0, models.NewReadFailedError(err)
	}
	return member.UnreadCount, nil
}
