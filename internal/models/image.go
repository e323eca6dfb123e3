package models

import (
	"time"

	"gorm.io/gorm"
)

// Image is an uploaded binary asset. The bytes live in the object store under
// Path; the row only records metadata and ownership.
type Image struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Path       string         `gorm:"not null" json:"path"`
	Searchable bool           `gorm:"not null;default:false" json:"searchable"`
	AuthorID   uint           `gorm:"not null;index" json:"author"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// ResourceID implements Resource.
func (i *Image) ResourceID() uint { return i.ID }

// ResourceKind implements Resource.
func (i *Image) ResourceKind() string { return KindImage }

// OwnerID implements Resource.
func (i *Image) OwnerID() uint { return i.AuthorID }

// PublicationTime implements Resource. Images have no publish lifecycle.
func (i *Image) PublicationTime() *time.Time { return nil }
