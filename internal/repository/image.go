package repository

import (
	"context"
	"errors"
	"strings"

	"zilean/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines persistence operations for uploaded images.
type ImageRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Image, error)
	Create(ctx context.Context, image *models.Image) error
	Update(ctx context.Context, image *models.Image) error
	Delete(ctx context.Context, id uint) error
	SearchByName(ctx context.Context, name string, limit int) ([]models.Image, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a new ImageRepository implementation.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Image", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &image, nil
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) Update(ctx context.Context, image *models.Image) error {
	if err := r.db.WithContext(ctx).Save(image).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Image{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) SearchByName(ctx context.Context, name string, limit int) ([]models.Image, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var images []models.Image
	if err := r.db.WithContext(ctx).
		Where("searchable = ?", true).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%").
		Limit(limit).
		Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Image, error) {
	var images []models.Image
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}
