package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"zilean/internal/models"
	"zilean/internal/repository"
)

var (
	// ErrEmptyComment is returned when the comment body is blank.
	ErrEmptyComment = errors.New("Missing arguments in request")
	// ErrCommentNotFound is returned when deletion matches no comment.
	ErrCommentNotFound = errors.New("no comment found with given timestamp")
)

// CommentService manages comments on published resources.
type CommentService struct {
	comments repository.CommentRepository
}

// NewCommentService returns a new CommentService.
func NewCommentService(comments repository.CommentRepository) *CommentService {
	return &CommentService{comments: comments}
}

// Add attaches a comment to the resource.
func (s *CommentService) Add(ctx context.Context, res models.Resource, userID uint, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}
	comment := &models.Comment{
		Text:         text,
		UserID:       userID,
		ResourceID:   res.ResourceID(),
		ResourceType: res.ResourceKind(),
	}
	if err := s.comments.Add(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// List returns the resource's comments in creation order.
func (s *CommentService) List(ctx context.Context, res models.Resource) ([]models.Comment, error) {
	return s.comments.ListForResource(ctx, res.ResourceKind(), res.ResourceID())
}

// Delete removes the principal's comment identified by its creation
// timestamp.
func (s *CommentService) Delete(ctx context.Context, res models.Resource, userID uint, createdAt time.Time) error {
	n, err := s.comments.DeleteByCreatedAt(ctx, res.ResourceKind(), res.ResourceID(), userID, createdAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCommentNotFound
	}
	return nil
}
