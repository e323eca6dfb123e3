package models

import "time"

// Subscription is a directed edge from a subscriber to the author they follow.
// The combination of SubscriberID and TargetID must be unique; the target's
// denormalized SubscriberCount tracks incoming edges.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscription_edge" json:"subscriber_id"`
	TargetID     uint      `gorm:"not null;uniqueIndex:idx_subscription_edge" json:"target_id"`
	CreatedAt    time.Time `json:"created_at"`

	Target User `gorm:"foreignKey:TargetID" json:"target,omitempty"`
}
