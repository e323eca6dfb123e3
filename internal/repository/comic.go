package repository

import (
	"context"
	"errors"
	"time"

	"zilean/internal/cache"
	"zilean/internal/models"

	"gorm.io/gorm"
)

// ComicRepository defines persistence operations for comics.
type ComicRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Comic, error)
	Create(ctx context.Context, comic *models.Comic) error
	Update(ctx context.Context, comic *models.Comic) error
	Delete(ctx context.Context, id uint) error
	SetPublished(ctx context.Context, id uint, at *time.Time) error
	Search(ctx context.Context, params SearchParams) ([]models.Comic, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Comic, error)
}

type comicRepository struct {
	db *gorm.DB
}

// NewComicRepository returns a new ComicRepository implementation.
func NewComicRepository(db *gorm.DB) ComicRepository {
	return &comicRepository{db: db}
}

func (r *comicRepository) GetByID(ctx context.Context, id uint) (*models.Comic, error) {
	var comic models.Comic
	key := cache.ComicKey(id)

	err := cache.Aside(ctx, key, &comic, cache.ComicTTL, func() error {
		if err := r.db.WithContext(ctx).First(&comic, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Comic", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &comic, nil
}

func (r *comicRepository) Create(ctx context.Context, comic *models.Comic) error {
	if err := r.db.WithContext(ctx).Create(comic).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *comicRepository) Update(ctx context.Context, comic *models.Comic) error {
	if err := r.db.WithContext(ctx).Save(comic).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateComic(ctx, comic.ID)
	return nil
}

func (r *comicRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.KindComic, id).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_type = ? AND resource_id = ?", models.KindComic, id).
			Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comic{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateComic(ctx, id)
	return nil
}

func (r *comicRepository) SetPublished(ctx context.Context, id uint, at *time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Comic{}).
		Where("id = ?", id).
		Update("published_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateComic(ctx, id)
	return nil
}

func (r *comicRepository) Search(ctx context.Context, params SearchParams) ([]models.Comic, error) {
	var comics []models.Comic
	if err := applySearch(r.db.WithContext(ctx).Model(&models.Comic{}), params).
		Find(&comics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comics, nil
}

func (r *comicRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Comic, error) {
	var comics []models.Comic
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&comics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comics, nil
}
