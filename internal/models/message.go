package models

import (
	"time"
)

// ConversationType enumerates the audiences a message can target.
type ConversationType string

const (
	TypeDirect ConversationType = "direct"
	TypeClass  ConversationType = "class"
	TypeCourse ConversationType = "course"
)

// AttachmentKind enumerates supported attachment media kinds.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is an optional media reference carried by a message. The upload
// itself happens elsewhere; only the resulting reference is stored here.
type Attachment struct {
	URL      string         `json:"url,omitempty"`
	Kind     AttachmentKind `gorm:"column:kind;size:16" json:"kind,omitempty"`
	FileName string         `json:"fileName,omitempty"`
	Size     int64          `json:"size,omitempty"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
	Duration float64        `json:"duration,omitempty"`
}

// Present reports whether the attachment reference is populated.
func (a Attachment) Present() bool {
	return a.URL != ""
}

// Message is an immutable record of one send. Sender identity and the
// participant set are snapshots taken at send time and never re-resolved.
// Moderation may hard-delete a message; nothing else mutates it.
type Message struct {
	ID             string           `gorm:"primaryKey;size:64" json:"id"`
	ConversationID string           `gorm:"size:160;index;not null" json:"conversationId"`
	SenderID       string           `gorm:"size:64;index;not null" json:"senderId"`
	SenderName     string           `json:"senderDisplayName"`
	SenderRole     UserRole         `gorm:"size:16" json:"senderRole"`
	Content        string           `gorm:"type:text" json:"content"`
	Attachment     Attachment       `gorm:"embedded;embeddedPrefix:attachment_" json:"attachment,omitzero"`
	Timestamp      time.Time        `gorm:"index" json:"timestamp"`
	Type           ConversationType `gorm:"size:16;not null" json:"type"`
	Participants   []string         `gorm:"serializer:json" json:"participants"`
	RecipientID    string           `gorm:"size:64;index" json:"recipientId,omitempty"`
	ClassID        string           `gorm:"size:64;index" json:"classId,omitempty"`
	CourseID       string           `gorm:"size:64;index" json:"courseId,omitempty"`

	// IsRead predates per-conversation unread counters and is kept for
	// backward compatibility only; ConversationMember rows are authoritative.
	IsRead bool `gorm:"default:false" json:"isRead"`
}

// VisibleTo reports whether a user is in the message's participant snapshot.
func (m *Message) VisibleTo(userID string) bool {
	for _, p := range m.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
