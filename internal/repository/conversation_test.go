package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"classline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Course{},
		&models.Message{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Notification{},
		&models.Invitation{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func directConversation(id string, participants []string, sender, content string) *models.Conversation {
	return &models.Conversation{
		ID:              id,
		Type:            models.TypeDirect,
		Participants:    participants,
		LastMessage:     content,
		LastMessageTime: time.Now().UTC(),
	}
}

func TestConversationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	t.Run("UpsertCreatesWithZeroForSender", func(t *testing.T) {
		conv := directConversation("alice-bob", []string{"alice", "bob"}, "alice", "hi")
		err := repo.Upsert(ctx, conv, "alice")
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, "alice-bob")
		require.NoError(t, err)
		assert.Equal(t, 0, fetched.UnreadCounts["alice"])
		assert.Equal(t, 1, fetched.UnreadCounts["bob"])
		assert.Equal(t, "hi", fetched.LastMessage)
	})

	t.Run("UpsertIncrementsExistingCounts", func(t *testing.T) {
		conv := directConversation("carol-dave", []string{"carol", "dave"}, "carol", "one")
		require.NoError(t, repo.Upsert(ctx, conv, "carol"))

		conv.LastMessage = "two"
		conv.LastMessageTime = time.Now().UTC()
		require.NoError(t, repo.Upsert(ctx, conv, "carol"))

		fetched, err := repo.GetByID(ctx, "carol-dave")
		require.NoError(t, err)
		assert.Equal(t, 0, fetched.UnreadCounts["carol"])
		assert.Equal(t, 2, fetched.UnreadCounts["dave"])
		assert.Equal(t, "two", fetched.LastMessage)
	})

	t.Run("ReplyResetsNothingButIncrementsOtherSide", func(t *testing.T) {
		conv := directConversation("erin-frank", []string{"erin", "frank"}, "erin", "ping")
		require.NoError(t, repo.Upsert(ctx, conv, "erin"))

		// Frank replies without reading first. His own backlog stays.
		conv.LastMessage = "pong"
		require.NoError(t, repo.Upsert(ctx, conv, "frank"))

		fetched, err := repo.GetByID(ctx, "erin-frank")
		require.NoError(t, err)
		assert.Equal(t, 1, fetched.UnreadCounts["erin"])
		assert.Equal(t, 1, fetched.UnreadCounts["frank"])
	})

	t.Run("MarkReadZeroesCounter", func(t *testing.T) {
		conv := directConversation("gina-hank", []string{"gina", "hank"}, "gina", "hey")
		require.NoError(t, repo.Upsert(ctx, conv, "gina"))
		require.NoError(t, repo.Upsert(ctx, conv, "gina"))

		require.NoError(t, repo.MarkRead(ctx, "gina-hank", "hank"))

		count, err := repo.UnreadCount(ctx, "gina-hank", "hank")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("MarkReadIsIdempotent", func(t *testing.T) {
		conv := directConversation("ivan-judy", []string{"ivan", "judy"}, "ivan", "yo")
		require.NoError(t, repo.Upsert(ctx, conv, "ivan"))

		require.NoError(t, repo.MarkRead(ctx, "ivan-judy", "judy"))
		require.NoError(t, repo.MarkRead(ctx, "ivan-judy", "judy"))

		count, err := repo.UnreadCount(ctx, "ivan-judy", "judy")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("MarkReadBeforeAnyMessageSucceeds", func(t *testing.T) {
		err := repo.MarkRead(ctx, "never-seen", "judy")
		assert.NoError(t, err)
	})

	t.Run("UnreadCountAbsentRowIsZero", func(t *testing.T) {
		count, err := repo.UnreadCount(ctx, "no-such-conversation", "nobody")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
	})

	t.Run("ListForUserOrdersByRecency", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewConversationRepository(db)

		older := directConversation("kate-liam", []string{"kate", "liam"}, "kate", "old")
		older.LastMessageTime = time.Now().UTC().Add(-time.Hour)
		require.NoError(t, repo.Upsert(ctx, older, "kate"))

		newer := directConversation("kate-mona", []string{"kate", "mona"}, "mona", "new")
		require.NoError(t, repo.Upsert(ctx, newer, "mona"))

		conversations, err := repo.ListForUser(ctx, "kate")
		require.NoError(t, err)
		require.Len(t, conversations, 2)
		assert.Equal(t, "kate-mona", conversations[0].ID)
		assert.Equal(t, "kate-liam", conversations[1].ID)
		assert.Equal(t, 1, conversations[0].UnreadCounts["kate"])
		assert.Equal(t, 0, conversations[1].UnreadCounts["kate"])
	})

	t.Run("ListForUserExcludesNonMembers", func(t *testing.T) {
		conversations, err := repo.ListForUser(ctx, "outsider")
		require.NoError(t, err)
		assert.Empty(t, conversations)
	})
}

// Concurrent senders on the same fresh conversation must not lose increments
// or produce duplicate rows. Single connection serializes sqlite access; the
// assertion is about statement semantics, not sqlite locking.
func TestConversationRepositoryConcurrentUpsert(t *testing.T) {
	dsn := fmt.Sprintf("file:concurrent_upsert_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Conversation{}, &models.ConversationMember{}))

	repo := NewConversationRepository(db)
	ctx := context.Background()

	const perSender = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perSender)
	for _, sender := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				conv := directConversation("alice-bob", []string{"alice", "bob"}, sender, "msg")
				if err := repo.Upsert(ctx, conv, sender); err != nil {
					errs <- err
				}
			}
		}(sender)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert failed: %v", err)
	}

	fetched, err := repo.GetByID(ctx, "alice-bob")
	require.NoError(t, err)
	// Each participant was incremented once per message from the other side.
	assert.Equal(t, perSender, fetched.UnreadCounts["alice"])
	assert.Equal(t, perSender, fetched.UnreadCounts["bob"])

	var memberRows int64
	require.NoError(t, db.Model(&models.ConversationMember{}).Count(&memberRows).Error)
	assert.EqualValues(t, 2, memberRows)
}
