// Package models contains data structures for the application's domain records.
package models

import (
	"time"
)

// UserRole enumerates the roles a school account can hold.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
	RoleStaff   UserRole = "staff"
)

// User represents a school account (student, teacher, admin or staff).
type User struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName    string     `gorm:"not null" json:"displayName"`
	Role           UserRole   `gorm:"size:16;not null;index" json:"role"`
	PasswordHash   string     `json:"-"`
	ClassID        string     `gorm:"size:64;index" json:"classId,omitempty"`
	ClassName      string     `json:"className,omitempty"`
	Grade          string     `json:"grade,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	IsActive       bool       `gorm:"default:true" json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastSeen       *time.Time `json:"lastSeen,omitempty"`
}

// Name returns the display name, falling back to the email address. Sender
// identity snapshots on messages use this value.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Class represents a homeroom class with one owning teacher.
type Class struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Grade       string    `json:"grade"`
	TeacherID   string    `gorm:"size:64;index" json:"teacherId"`
	TeacherName string    `json:"teacherName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Course represents a subject taught by one teacher to one or more classes.
type Course struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	TeacherID string    `gorm:"size:64;index" json:"teacherId"`
	ClassIDs  []string  `gorm:"serializer:json" json:"classIds"`
	CreatedAt time.Time `json:"createdAt"`
}
