package models

import (
	"time"

	"gorm.io/gorm"
)

// Story represents a written story in the Zilean application. It shares the
// comic's publish lifecycle and rating semantics.
type Story struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Body        string     `gorm:"type:text" json:"story"`
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

	Comments []Comment `gorm:"polymorphic:Resource;polymorphicValue:story" json:"comments,omitempty"`
}

// ResourceID implements Resource.
func (s *Story) ResourceID() uint { return s.ID }

// ResourceKind implements Resource.
func (s *Story) ResourceKind() string { return KindStory }

// OwnerID implements Resource.
func (s *Story) OwnerID() uint { return s.AuthorID }

// PublicationTime implements Resource.
func (s *Story) PublicationTime() *time.Time { return s.PublishedAt }
