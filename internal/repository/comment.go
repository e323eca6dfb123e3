package repository

import (
	"context"
	"time"

	"zilean/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments. Comments are
// not independently addressable; within a resource they are identified by
// their author and creation timestamp.
type CommentRepository interface {
	Add(ctx context.Context, comment *models.Comment) error
	ListForResource(ctx context.Context, kind string, resourceID uint) ([]models.Comment, error)
	DeleteByCreatedAt(ctx context.Context, kind string, resourceID, userID uint, createdAt time.Time) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Add(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) ListForResource(ctx context.Context, kind string, resourceID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", kind, resourceID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) DeleteByCreatedAt(ctx context.Context, kind string, resourceID, userID uint, createdAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ? AND user_id = ? AND created_at = ?",
			kind, resourceID, userID, createdAt).
		Delete(&models.Comment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
