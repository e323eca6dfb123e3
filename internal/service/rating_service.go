package service

import (
	"context"
	"errors"

	"zilean/internal/models"
	"zilean/internal/repository"
)

// ErrInvalidRating is returned for values outside [0, 5].
var ErrInvalidRating = errors.New("invalid rating")

// RatingService applies rating actions to published resources. The guard
// chain has already established that the resource exists and is published.
type RatingService struct {
	ratings repository.RatingRepository
}

// NewRatingService returns a new RatingService.
func NewRatingService(ratings repository.RatingRepository) *RatingService {
	return &RatingService{ratings: ratings}
}

// Rate records the principal's rating for the resource, replacing any
// previous rating they gave it.
func (s *RatingService) Rate(ctx context.Context, res models.Resource, userID uint, value float64) error {
	if value < 0 || value > 5 {
		return ErrInvalidRating
	}
	return s.ratings.Upsert(ctx, res.ResourceKind(), res.ResourceID(), userID, value)
}
