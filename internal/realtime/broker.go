package realtime

import (
	"context"
	"strings"
	"sync"

	"classline/internal/models"
	"classline/internal/observability"
	"classline/internal/repository"
)

// MessageHandler receives a full ordered snapshot of a conversation's
// messages, oldest first.
type MessageHandler func(messages []models.Message)

// ConversationHandler receives a full ordered snapshot of a user's
// conversation list, most recent first.
type ConversationHandler func(conversations []models.Conversation)

type messageSub struct {
	mu             sync.Mutex
	closed         bool
	userID         string
	conversationID string
	fn             MessageHandler
}

type conversationSub struct {
	mu     sync.Mutex
	closed bool
	userID string
	fn     ConversationHandler
}

// Broker manages live subscriptions. Every delivery is a fresh full snapshot
// queried at dispatch time, never an incremental patch, so a missed or
// duplicated event can only cost freshness. Delivery is at-least-once.
type Broker struct {
	mu       sync.Mutex
	nextID   uint64
	msgSubs  map[string]map[uint64]*messageSub
	convSubs map[string]map[uint64]*conversationSub

	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	notifier      *Notifier
	streamLog     *observability.StreamLogger
}

// NewBroker wires a Broker over the snapshot sources. notifier may be backed
// by a nil Redis client; the broker then works purely in-process.
func NewBroker(messages repository.MessageRepository, conversations repository.ConversationRepository, notifier *Notifier) *Broker {
	return &Broker{
		msgSubs:       make(map[string]map[uint64]*messageSub),
		convSubs:      make(map[string]map[uint64]*conversationSub),
		messages:      messages,
		conversations: conversations,
		notifier:      notifier,
		streamLog:     observability.NewStreamLogger("chat"),
	}
}

// Start attaches the broker to Redis pub/sub so events published by other
// instances reach this broker's subscribers too.
func (b *Broker) Start(ctx context.Context) error {
	return b.notifier.StartSubscriber(ctx, func(channel, _ string) {
		switch {
		case strings.HasPrefix(channel, "chat:conv:"):
			b.dispatchMessages(context.Background(), strings.TrimPrefix(channel, "chat:conv:"))
		case strings.HasPrefix(channel, "chat:user:"):
			b.dispatchConversations(context.Background(), strings.TrimPrefix(channel, "chat:user:"))
		}
	})
}

// SubscribeMessages registers a handler for one conversation's message
// snapshots and delivers the initial snapshot before returning. The returned
// cancel is deterministic: once it returns, fn is never called again.
func (b *Broker) SubscribeMessages(ctx context.Context, userID, conversationID string, fn MessageHandler) func() {
	sub := &messageSub{userID: userID, conversationID: conversationID, fn: fn}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.msgSubs[conversationID] == nil {
		b.msgSubs[conversationID] = make(map[uint64]*messageSub)
	}
	b.msgSubs[conversationID][id] = sub
	b.mu.Unlock()

	observability.ActiveSubscriptions.WithLabelValues("messages").Inc()
	b.streamLog.LogSubscribe(ctx, userID, ConversationChannel(conversationID))

	b.deliverMessages(ctx, sub)

	return func() {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()

		b.mu.Lock()
		if subs, ok := b.msgSubs[conversationID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.msgSubs, conversationID)
			}
		}
		b.mu.Unlock()

		observability.ActiveSubscriptions.WithLabelValues("messages").Dec()
		b.streamLog.LogUnsubscribe(ctx, userID, ConversationChannel(conversationID), "cancelled")
	}
}

// SubscribeConversations registers a handler for a user's conversation-list
// snapshots and delivers the initial snapshot before returning.
func (b *Broker) SubscribeConversations(ctx context.Context, userID string, fn ConversationHandler) func() {
	sub := &conversationSub{userID: userID, fn: fn}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.convSubs[userID] == nil {
		b.convSubs[userID] = make(map[uint64]*conversationSub)
	}
	b.convSubs[userID][id] = sub
	b.mu.Unlock()

	observability.ActiveSubscriptions.WithLabelValues("conversations").Inc()
	b.streamLog.LogSubscribe(ctx, userID, UserChannel(userID))

	b.deliverConversations(ctx, sub)

	return func() {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()

		b.mu.Lock()
		if subs, ok := b.convSubs[userID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.convSubs, userID)
			}
		}
		b.mu.Unlock()

		observability.ActiveSubscriptions.WithLabelValues("conversations").Dec()
		b.streamLog.LogUnsubscribe(ctx, userID, UserChannel(userID), "cancelled")
	}
}

// ConversationChanged fans one change event out: local subscribers re-query
// immediately, and the event is published so other instances do the same.
// Implements the messaging service's publisher contract.
func (b *Broker) ConversationChanged(ctx context.Context, conversationID string, participantIDs []string) {
	b.dispatchMessages(ctx, conversationID)
	for _, userID := range participantIDs {
		b.dispatchConversations(ctx, userID)
	}

	if err := b.notifier.PublishConversation(ctx, conversationID); err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
	}
	for _, userID := range participantIDs {
		if err := b.notifier.PublishUser(ctx, userID); err != nil {
			observability.RedisErrors.WithLabelValues("publish").Inc()
		}
	}
}

func (b *Broker) dispatchMessages(ctx context.Context, conversationID string) {
	b.mu.Lock()
	subs := make([]*messageSub, 0, len(b.msgSubs[conversationID]))
	for _, sub := range b.msgSubs[conversationID] {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliverMessages(ctx, sub)
	}
}

func (b *Broker) dispatchConversations(ctx context.Context, userID string) {
	b.mu.Lock()
	subs := make([]*conversationSub, 0, len(b.convSubs[userID]))
	for _, sub := range b.convSubs[userID] {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliverConversations(ctx, sub)
	}
}

// deliverMessages queries and delivers one snapshot under the subscription
// lock, so a concurrent cancel either blocks this delivery entirely or waits
// for it to finish.
func (b *Broker) deliverMessages(ctx context.Context, sub *messageSub) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}

	snapshot, err := b.messages.ListByConversation(ctx, sub.conversationID)
	if err != nil {
		// A failed query still yields a delivery: the empty snapshot is a
		// safe terminal state, stale data is not.
		b.streamLog.LogError(ctx, sub.userID, ConversationChannel(sub.conversationID), err)
		snapshot = []models.Message{}
	}
	sub.fn(snapshot)
	observability.SnapshotDeliveries.WithLabelValues("messages").Inc()
	b.streamLog.LogDelivery(ctx, sub.userID, ConversationChannel(sub.conversationID), len(snapshot))
}

func (b *Broker) deliverConversations(ctx context.Context, sub *conversationSub) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}

	snapshot, err := b.conversations.ListForUser(ctx, sub.userID)
	if err != nil {
		b.streamLog.LogError(ctx, sub.userID, UserChannel(sub.userID), err)
		snapshot = []models.Conversation{}
	}
	sub.fn(snapshot)
	observability.SnapshotDeliveries.WithLabelValues("conversations").Inc()
	b.streamLog.LogDelivery(ctx, sub.userID, UserChannel(sub.userID), len(snapshot))
}
