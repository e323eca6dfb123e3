package models

import "time"

// Rating is a user's ledger entry for a single rated resource. The unique index
// over (user, kind, resource) is what enforces at-most-one-rating-per-user:
// re-rating is an upsert against this row, never a second insert.
type Rating struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_rating_ledger" json:"user_id"`
	ResourceType string    `gorm:"not null;uniqueIndex:idx_rating_ledger" json:"resource_type"`
	ResourceID   uint      `gorm:"not null;uniqueIndex:idx_rating_ledger" json:"resource_id"`
	Value        float64   `gorm:"not null" json:"value"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
