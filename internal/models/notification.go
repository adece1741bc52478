package models

import (
	"encoding/json"
	"time"
)

// NotificationType enumerates notification categories.
type NotificationType string

const (
	NotifyMessage    NotificationType = "message"
	NotifyInvitation NotificationType = "invitation"
	NotifySystem     NotificationType = "system"
)

// Notification is a derived side-channel record shown in the notification
// center. It is independent from conversation unread counters: deleting or
// reading one never touches the other.
type Notification struct {
	ID        string           `gorm:"primaryKey;size:64" json:"id"`
	UserID    string           `gorm:"size:64;index;not null" json:"userId"`
	Type      NotificationType `gorm:"size:24" json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `gorm:"default:false" json:"isRead"`
	Data      json.RawMessage  `gorm:"type:json" json:"data,omitempty"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
}

// InvitationStatus enumerates the lifecycle states of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation lets an admin pre-provision an account for an email address.
type Invitation struct {
	ID        string           `gorm:"primaryKey;size:64" json:"id"`
	Email     string           `gorm:"index;not null" json:"email"`
	Role      UserRole         `gorm:"size:16" json:"role"`
	ClassID   string           `gorm:"size:64" json:"classId,omitempty"`
	Token     string           `gorm:"uniqueIndex;size:64" json:"token"`
	Status    InvitationStatus `gorm:"size:16;default:'pending'" json:"status"`
	CreatedBy string           `gorm:"size:64" json:"createdBy"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}
