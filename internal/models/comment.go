package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a published comic or story. Comments are not
// independently addressable: clients identify one by its author and creation
// timestamp, so CreatedAt doubles as the deletion key.
type Comment struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	Text         string         `gorm:"not null" json:"text"`
	UserID       uint           `gorm:"not null;index" json:"author"`
	User         User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ResourceID   uint           `gorm:"not null;index:idx_comment_resource" json:"-"`
	ResourceType string         `gorm:"not null;index:idx_comment_resource" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
