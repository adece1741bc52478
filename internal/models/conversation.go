package models

import (
	"time"
)

// Conversation is the mutable denormalized summary of one audience. Its ID is
// the deterministic conversation key, so there is exactly one row per distinct
// audience and concurrent first sends converge on the same primary key.
type Conversation struct {
	ID               string           `gorm:"primaryKey;size:160" json:"id"`
	Type             ConversationType `gorm:"size:16;not null" json:"type"`
	Participants     []string         `gorm:"serializer:json" json:"participants"`
	ParticipantNames []string         `gorm:"serializer:json" json:"participantNames"`
	LastMessage      string           `json:"lastMessage"`
	LastMessageTime  time.Time        `gorm:"index" json:"lastMessageTime"`
	ClassName        string           `json:"className,omitempty"`
	CourseID         string           `gorm:"size:64" json:"courseId,omitempty"`
	CourseName       string           `json:"courseName,omitempty"`
	CreatedAt        time.Time        `json:"-"`
	UpdatedAt        time.Time        `json:"-"`

	// UnreadCounts is assembled from ConversationMember rows on read; it is
	// never written through this field.
	UnreadCounts map[string]int `gorm:"-" json:"unreadCounts"`
}

// ConversationMember carries one participant's unread counter for one
// conversation. The counter only ever moves by atomic increments on send and
// a direct reset to zero on read acknowledgment; a missing row means zero.
type ConversationMember struct {
	ConversationID string     `gorm:"primaryKey;size:160" json:"conversationId"`
	UserID         string     `gorm:"primaryKey;size:64" json:"userId"`
	UnreadCount    int        `gorm:"not null;default:0" json:"unreadCount"`
	LastReadAt     *time.Time `json:"lastReadAt,omitempty"`
}

// HasParticipant reports whether a user is in the conversation's current
// member set.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
