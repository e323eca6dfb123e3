// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a principal in the Zilean application. A user owns comics and
// stories, subscribes to other users, and keeps one rating ledger entry per
// rated resource.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Email            string         `gorm:"unique;not null" json:"email"`
	Username         string         `gorm:"unique;not null" json:"username"`
	Password         string         `gorm:"not null" json:"-"`
	Verified         bool           `gorm:"not null;default:false" json:"verified"`
	SubscriberCount  int64          `gorm:"not null;default:0" json:"subscriber_count"`
	ProfilePictureID *uint          `json:"profile_picture_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Comics        []Comic        `gorm:"foreignKey:AuthorID" json:"comics,omitempty"`
	Stories       []Story        `gorm:"foreignKey:AuthorID" json:"stories,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:SubscriberID" json:"subscriptions,omitempty"`
	Ratings       []Rating       `gorm:"foreignKey:UserID" json:"ratings,omitempty"`
}
