package models

import (
	"time"

	"gorm.io/gorm"
)

// Comic represents a comic in the Zilean application. A nil PublishedAt means
// the comic is a draft visible only to its author.
type Comic struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	AuthorID    uint       `gorm:"not null;index" json:"author"`
	User        User       `gorm:"foreignKey:AuthorID" json:"user,omitempty"`
	CoverID     *uint      `json:"cover_id,omitempty"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	RatingTotal float64    `gorm:"not null;default:0" json:"rating_total"`
	RatingCount int64      `gorm:"not null;default:0" json:"rating_count"`
	Rating      float64    `gorm:"not null;default:0" json:"rating"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Comments []Comment `gorm:"polymorphic:Resource;polymorphicValue:comic" json:"comments,omitempty"`
}

// ResourceID implements Resource.
func (c *Comic) ResourceID() uint { return c.ID }

// ResourceKind implements Resource.
func (c *Comic) ResourceKind() string { return KindComic }

// OwnerID implements Resource.
func (c *Comic) OwnerID() uint { return c.AuthorID }

// PublicationTime implements Resource.
func (c *Comic) PublicationTime() *time.Time { return c.PublishedAt }
