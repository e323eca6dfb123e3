package service

import (
	"context"
	"errors"

	"zilean/internal/models"
	"zilean/internal/repository"
)

// ErrSubscriptionTarget is returned when the subscription target does not
// exist.
var ErrSubscriptionTarget = errors.New("no user found with given id")

// SubscriptionService maintains the follow graph between users.
type SubscriptionService struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
}

// NewSubscriptionService returns a new SubscriptionService.
func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users}
}

// Subscribe adds a follow edge from subscriber to target. Subscribing to
// yourself is permitted.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, targetID uint) error {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return ErrSubscriptionTarget
	}
	return s.subs.Subscribe(ctx, subscriberID, targetID)
}

// Unsubscribe removes the follow edge.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, targetID uint) error {
	return s.subs.Unsubscribe(ctx, subscriberID, targetID)
}

// Subscriptions lists the users the subscriber follows.
func (s *SubscriptionService) Subscriptions(ctx context.Context, subscriberID uint) ([]models.User, error) {
	return s.subs.ListTargets(ctx, subscriberID)
}

// SubscriptionIDs lists just the followed user IDs, used by the
// subscriptions search filter.
func (s *SubscriptionService) SubscriptionIDs(ctx context.Context, subscriberID uint) ([]uint, error) {
	return s.subs.TargetIDs(ctx, subscriberID)
}
