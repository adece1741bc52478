package repository

import (
	"context"
	"testing"
	"time"

	"classline/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessage(conversationID, senderID, content string, at time.Time) *models.Message {
	return &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     "Sender " + senderID,
		SenderRole:     models.RoleTeacher,
		Content:        content,
		Timestamp:      at,
		Type:           models.TypeDirect,
		Participants:   []string{senderID, "other"},
	}
}

func TestMessageRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		msg := newTestMessage("a-b", "a", "hello there", time.Now().UTC())
		msg.Attachment = models.Attachment{
			URL:      "https://cdn.example.com/photo.jpg",
			Kind:     models.AttachmentImage,
			FileName: "photo.jpg",
		}
		require.NoError(t, repo.Create(ctx, msg))

		fetched, err := repo.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello there", fetched.Content)
		assert.Equal(t, []string{"a", "other"}, fetched.Participants)
		assert.True(t, fetched.Attachment.Present())
		assert.Equal(t, models.AttachmentImage, fetched.Attachment.Kind)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
	})

	t.Run("ListByConversationOldestFirst", func(t *testing.T) {
		base := time.Now().UTC()
		second := newTestMessage("c-d", "c", "second", base)
		first := newTestMessage("c-d", "d", "first", base.Add(-time.Minute))
		other := newTestMessage("c-e", "c", "elsewhere", base)
		require.NoError(t, repo.Create(ctx, second))
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, other))

		msgs, err := repo.ListByConversation(ctx, "c-d")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "first", msgs[0].Content)
		assert.Equal(t, "second", msgs[1].Content)
	})

	t.Run("EmptyConversationIsEmptySlice", func(t *testing.T) {
		msgs, err := repo.ListByConversation(ctx, "nobody-here")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("SearchMatchesContentAndSender", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newTestMessage("x-y", "x", "field trip permission slips", time.Now().UTC())))

		msgs, err := repo.Search(ctx, "PERMISSION", 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		msgs, err = repo.Search(ctx, "sender x", 10)
		require.NoError(t, err)
		assert.NotEmpty(t, msgs)
	})

	t.Run("Delete", func(t *testing.T) {
		msg := newTestMessage("m-n", "m", "to be removed", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, msg))

		require.NoError(t, repo.Delete(ctx, msg.ID))

		_, err := repo.GetByID(ctx, msg.ID)
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))

		err = repo.Delete(ctx, msg.ID)
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
	})

	t.Run("MarkRead", func(t *testing.T) {
		msg := newTestMessage("p-q", "p", "read me", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, msg))

		require.NoError(t, repo.MarkRead(ctx, msg.ID))

		fetched, err := repo.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.True(t, fetched.IsRead)
	})
}
