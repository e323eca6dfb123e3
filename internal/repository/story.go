package repository

import (
	"context"
	"errors"
	"time"

	"zilean/internal/cache"
	"zilean/internal/models"

	"gorm.io/gorm"
)

// StoryRepository defines persistence operations for stories.
type StoryRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Story, error)
	Create(ctx context.Context, story *models.Story) error
	Update(ctx context.Context, story *models.Story) error
	Delete(ctx context.Context, id uint) error
	SetPublished(ctx context.Context, id uint, at *time.Time) error
	Search(ctx context.Context, params SearchParams) ([]models.Story, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Story, error)
}

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository returns a new StoryRepository implementation.
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) GetByID(ctx context.Context, id uint) (*models.Story, error) {
	var story models.Story
	key := cache.StoryKey(id)

	err := cache.Aside(ctx, key, &story, cache.StoryTTL, func() error {
		if err := r.db.WithContext(ctx).First(&story, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Story", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *storyRepository) Update(ctx context.Context, story *models.Story) error {
	if err := r.db.WithContext(ctx).Save(story).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, story.ID)
	return nil
}

func (r *storyRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.KindStory, id).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.KindStory, id).
			Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Story{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, id)
	return nil
}

func (r *storyRepository) SetPublished(ctx context.Context, id uint, at *time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("id = ?", id).
		Update("published_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStory(ctx, id)
	return nil
}

func (r *storyRepository) Search(ctx context.Context, params SearchParams) ([]models.Story, error) {
	var stories []models.Story
	if err := applySearch(r.db.WithContext(ctx).Model(&models.Story{}), params).
		Find(&stories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stories, nil
}

func (r *storyRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Story, error) {
	var stories []models.Story
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&stories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stories, nil
}
