package repository

import (
	"context"
	"errors"

	"zilean/internal/cache"
	"zilean/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrAlreadySubscribed is returned when the edge already exists.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrNotSubscribed is returned when there is no edge to remove.
	ErrNotSubscribed = errors.New("not subscribed")
)

// SubscriptionRepository maintains the directed subscribe edges and the
// denormalized subscriber counter on the target. Edge and counter writes
// share a transaction.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, subscriberID, targetID uint) error
	Unsubscribe(ctx context.Context, subscriberID, targetID uint) error
	ListTargets(ctx context.Context, subscriberID uint) ([]models.User, error)
	TargetIDs(ctx context.Context, subscriberID uint) ([]uint, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, subscriberID, targetID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := models.Subscription{SubscriberID: subscriberID, TargetID: targetID}
		if err := tx.Create(&edge).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadySubscribed
			}
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", targetID).
			Update("subscriber_count", gorm.Expr("subscriber_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			return ErrAlreadySubscribed
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, targetID)
	return nil
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, targetID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("subscriber_id = ? AND target_id = ?", subscriberID, targetID).
			Delete(&models.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotSubscribed
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND subscriber_count > 0", targetID).
			Update("subscriber_count", gorm.Expr("subscriber_count - 1")).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotSubscribed) {
			return ErrNotSubscribed
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, targetID)
	return nil
}

func (r *subscriptionRepository) ListTargets(ctx context.Context, subscriberID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN subscriptions s ON s.target_id = users.id").
		Where("s.subscriber_id = ?", subscriberID).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *subscriptionRepository) TargetIDs(ctx context.Context, subscriberID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Pluck("target_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}
