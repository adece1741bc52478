package messaging

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"classline/internal/models"
	"classline/internal/observability"
	"classline/internal/repository"
	"classline/internal/roster"

	"github.com/google/uuid"
)

// EventPublisher receives change notifications after a conversation's state
// moved. Implementations fan the event out to live subscribers; a nil
// publisher disables realtime delivery without affecting persistence.
type EventPublisher interface {
	ConversationChanged(ctx context.Context, conversationID string, participantIDs []string)
}

// Service owns the send and read-acknowledgment paths. All writes funnel
// through here so the message record, the conversation summary, and the
// unread counters move together.
type Service struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	classes       repository.ClassRepository
	courses       repository.CourseRepository
	roster        roster.Resolver
	publisher     EventPublisher
	log           *observability.Logger
}

// NewService wires a messaging Service. publisher may be nil.
func NewService(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	classes repository.ClassRepository,
	courses repository.CourseRepository,
	rosterResolver roster.Resolver,
	publisher EventPublisher,
) *Service {
	return &Service{
		messages:      messages,
		conversations: conversations,
		notifications: notifications,
		users:         users,
		classes:       classes,
		courses:       courses,
		roster:        rosterResolver,
		publisher:     publisher,
		log:           observability.GlobalLogger,
	}
}

// Send validates, persists, and fans out one message. The message row is
// written before the conversation summary: a crash between the two loses a
// preview update, never a message.
func (s *Service) Send(ctx context.Context, senderID, content string, attachment models.Attachment, audience Audience) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && !attachment.Present() {
		observability.SendFailures.WithLabelValues(models.CodeEmptyMessage).Inc()
		return nil, models.NewEmptyMessageError()
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		observability.SendFailures.WithLabelValues(models.CodeOf(err)).Inc()
		return nil, err
	}

	participants, names, err := s.resolveAudience(ctx, sender, audience)
	if err != nil {
		observability.SendFailures.WithLabelValues(models.CodeOf(err)).Inc()
		return nil, err
	}

	conversationID := audience.Key(senderID)
	now := time.Now().UTC()

	message := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       sender.ID,
		SenderName:     sender.Name(),
		SenderRole:     sender.Role,
		Content:        content,
		Attachment:     attachment,
		Timestamp:      now,
		Type:           audience.Kind,
		Participants:   participants,
		RecipientID:    audience.RecipientID,
		ClassID:        audience.ClassID,
		CourseID:       audience.CourseID,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		observability.SendFailures.WithLabelValues(models.CodeOf(err)).Inc()
		return nil, err
	}

	conv := &models.Conversation{
		ID:               conversationID,
		Type:             audience.Kind,
		Participants:     participants,
		ParticipantNames: names,
		LastMessage:      Preview(content, attachment),
		LastMessageTime:  now,
		CourseID:         audience.CourseID,
	}
	s.decorateConversation(ctx, conv, audience)

	if err := s.conversations.Upsert(ctx, conv, sender.ID); err != nil {
		observability.SendFailures.WithLabelValues(models.CodeOf(err)).Inc()
		return nil, err
	}

	observability.MessagesSent.WithLabelValues(string(audience.Kind)).Inc()

	if audience.Kind == models.TypeDirect {
		s.notifyDirect(ctx, sender, message)
	}

	if s.publisher != nil {
		s.publisher.ConversationChanged(ctx, conversationID, participants)
	}
	return message, nil
}

// resolveAudience produces the sorted participant ID snapshot and the
// matching display names for one send.
func (s *Service) resolveAudience(ctx context.Context, sender *models.User, audience Audience) ([]string, []string, error) {
	members := map[string]string{sender.ID: sender.Name()}

	switch audience.Kind {
	case models.TypeDirect:
		recipient, err := s.users.GetByID(ctx, audience.RecipientID)
		if err != nil {
			if models.CodeOf(err) == models.CodeNotFound {
				return nil, nil, models.NewRosterNotFoundError(audience.RecipientID)
			}
			return nil, nil, err
		}
		members[recipient.ID] = recipient.Name()

	case models.TypeClass:
		users, err := s.roster.ResolveClassRoster(ctx, audience.ClassID)
		if err != nil {
			return nil, nil, err
		}
		if len(users) == 0 {
			return nil, nil, models.NewRosterNotFoundError(audience.ClassID)
		}
		for _, u := range users {
			members[u.ID] = u.Name()
		}

	case models.TypeCourse:
		users, err := s.roster.ResolveCourseRoster(ctx, audience.CourseID)
		if err != nil {
			return nil, nil, err
		}
		if len(users) == 0 {
			return nil, nil, models.NewRosterNotFoundError(audience.CourseID)
		}
		for _, u := range users {
			members[u.ID] = u.Name()
		}

	default:
		return nil, nil, models.NewValidationError("unknown audience kind")
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = members[id]
	}
	return ids, names, nil
}

// decorateConversation fills the audience display fields on the summary.
// Roster resolution already proved the audience exists; a label lookup miss
// only degrades the display name.
func (s *Service) decorateConversation(ctx context.Context, conv *models.Conversation, audience Audience) {
	switch audience.Kind {
	case models.TypeClass:
		if class, err := s.classes.GetByID(ctx, audience.ClassID); err == nil {
			conv.ClassName = class.Name
		}
	case models.TypeCourse:
		if course, err := s.courses.GetByID(ctx, audience.CourseID); err == nil {
			conv.CourseName = course.Name
		}
	}
}

// notifyDirect records a notification for the recipient of a direct message.
// Best effort: a notification write failure never fails the send.
func (s *Service) notifyDirect(ctx context.Context, sender *models.User, message *models.Message) {
	if message.RecipientID == "" || message.RecipientID == sender.ID {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"conversationId": message.ConversationID,
		"messageId":      message.ID,
	})
	notification := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    message.RecipientID,
		Type:      models.NotifyMessage,
		Title:     "New message from " + sender.Name(),
		Message:   Preview(message.Content, message.Attachment),
		Data:      data,
		CreatedAt: message.Timestamp,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.log.Warn("notification fan-out failed",
			"recipient_id", message.RecipientID,
			"message_id", message.ID,
			"error", err)
	}
}

// MarkRead zeroes the caller's unread counter for one conversation and lets
// subscribers know the conversation list changed.
func (s *Service) MarkRead(ctx context.Context, conversationID, userID string) error {
	if err := s.conversations.MarkRead(ctx, conversationID, userID); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.ConversationChanged(ctx, conversationID, []string{userID})
	}
	return nil
}

// ListConversations returns the user's conversations, most recent first, with
// unread counters attached.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// GetConversation returns one conversation the user participates in.
func (s *Service) GetConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("not a participant in this conversation")
	}
	return conv, nil
}

// ListMessages returns a conversation's messages oldest first, restricted to
// participants.
func (s *Service) ListMessages(ctx context.Context, conversationID, userID string) ([]models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if models.CodeOf(err) == models.CodeNotFound {
			// No conversation yet means no history, not an error.
			return []models.Message{}, nil
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("not a participant in this conversation")
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

// UnreadCount reports one participant's unread counter.
func (s *Service) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	return s.conversations.UnreadCount(ctx, conversationID, userID)
}
