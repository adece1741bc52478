// Package realtime delivers live conversation and message updates to
// subscribers, in-process and across instances via Redis pub/sub.
package realtime

import (
	"context"
	"runtime/debug"

	"classline/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes change events into Redis channels so brokers on other
// instances re-query too. All methods are no-ops without a Redis client.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier using the provided Redis client. rdb may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// ConversationChannel derives the Redis channel name for a conversation.
func ConversationChannel(conversationID string) string {
	return "chat:conv:" + conversationID
}

// UserChannel derives the Redis channel name for a user's conversation list.
func UserChannel(userID string) string {
	return "chat:user:" + userID
}

// PublishConversation announces that a conversation's messages changed.
func (n *Notifier) PublishConversation(ctx context.Context, conversationID string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, ConversationChannel(conversationID), conversationID).Err()
}

// PublishUser announces that a user's conversation list changed.
func (n *Notifier) PublishUser(ctx context.Context, userID string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), userID).Err()
}

// StartSubscriber subscribes to the chat patterns and calls onMessage for
// each incoming event until ctx is done.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:conv:*", "chat:user:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in chat subscriber",
								"panic", r,
								"stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
