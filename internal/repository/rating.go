package repository

import (
	"context"
	"errors"
	"fmt"

	"zilean/internal/cache"
	"zilean/internal/models"

	"gorm.io/gorm"
)

// RatingRepository maintains the rating ledger and the denormalized
// aggregates on the rated resource. An upsert and its aggregate update run in
// one transaction so concurrent ratings cannot lose updates.
type RatingRepository interface {
	Upsert(ctx context.Context, kind string, resourceID, userID uint, value float64) error
	GetForUser(ctx context.Context, kind string, resourceID, userID uint) (*models.Rating, error)
	ListForUser(ctx context.Context, kind string, userID uint) ([]models.Rating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func ratedTable(kind string) (string, error) {
	switch kind {
	case models.KindComic:
		return "comics", nil
	case models.KindStory:
		return "stories", nil
	default:
		return "", fmt.Errorf("kind %q cannot be rated", kind)
	}
}

func (r *ratingRepository) Upsert(ctx context.Context, kind string, resourceID, userID uint, value float64) error {
	table, err := ratedTable(kind)
	if err != nil {
		return models.NewInternalError(err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Rating
		findErr := tx.
			Where("resource_type = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
			First(&existing).Error

		switch {
		case findErr == nil:
			// Replace the ledger entry; count is unchanged.
			delta := value - existing.Value
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
			if err := tx.Table(table).
				Where("id = ?", resourceID).
				Update("rating_total", gorm.Expr("rating_total + ?", delta)).Error; err != nil {
				return err
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			entry := models.Rating{
				UserID:       userID,
				ResourceType: kind,
				ResourceID:   resourceID,
				Value:        value,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if err := tx.Table(table).
				Where("id = ?", resourceID).
				Updates(map[string]interface{}{
					"rating_total": gorm.Expr("rating_total + ?", value),
					"rating_count": gorm.Expr("rating_count + 1"),
				}).Error; err != nil {
				return err
			}
		default:
			return findErr
		}

		return tx.Table(table).
			Where("id = ? AND rating_count > 0", resourceID).
			Update("rating", gorm.Expr("rating_total / rating_count")).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	switch kind {
	case models.KindComic:
		cache.InvalidateComic(ctx, resourceID)
	case models.KindStory:
		cache.InvalidateStory(ctx, resourceID)
	}
	return nil
}

func (r *ratingRepository) GetForUser(ctx context.Context, kind string, resourceID, userID uint) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
		First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &rating, nil
}

func (r *ratingRepository) ListForUser(ctx context.Context, kind string, userID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Where("resource_type = ? AND user_id = ?", kind, userID).
		Find(&ratings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ratings, nil
}
