// Package service provides application business logic (lifecycle, ratings,
// subscriptions, comments).
package service

import (
	"context"
	"fmt"
	"time"

	"zilean/internal/cache"
	"zilean/internal/models"
	"zilean/internal/repository"
)

// LifecycleService drives the publish state machine shared by comics and
// stories. Both transitions are idempotent: republishing resets the
// timestamp, re-unpublishing is a no-op.
type LifecycleService struct {
	comics  repository.ComicRepository
	stories repository.StoryRepository
}

// NewLifecycleService returns a new LifecycleService.
func NewLifecycleService(comics repository.ComicRepository, stories repository.StoryRepository) *LifecycleService {
	return &LifecycleService{comics: comics, stories: stories}
}

func (s *LifecycleService) setPublished(ctx context.Context, res models.Resource, at *time.Time) error {
	switch res.ResourceKind() {
	case models.KindComic:
		return s.comics.SetPublished(ctx, res.ResourceID(), at)
	case models.KindStory:
		return s.stories.SetPublished(ctx, res.ResourceID(), at)
	default:
		return models.NewInternalError(fmt.Errorf("kind %q has no publish lifecycle", res.ResourceKind()))
	}
}

// Publish moves the resource to the published state, stamping the current
// time even if it was already published.
func (s *LifecycleService) Publish(ctx context.Context, res models.Resource) error {
	now := time.Now()
	if err := s.setPublished(ctx, res, &now); err != nil {
		return err
	}
	cache.NotifyPublish(ctx, cache.PublishEvent{
		Kind:      res.ResourceKind(),
		ID:        res.ResourceID(),
		AuthorID:  res.OwnerID(),
		Published: true,
	})
	return nil
}

// Unpublish returns the resource to draft.
func (s *LifecycleService) Unpublish(ctx context.Context, res models.Resource) error {
	if err := s.setPublished(ctx, res, nil); err != nil {
		return err
	}
	cache.NotifyPublish(ctx, cache.PublishEvent{
		Kind:      res.ResourceKind(),
		ID:        res.ResourceID(),
		AuthorID:  res.OwnerID(),
		Published: false,
	})
	return nil
}
