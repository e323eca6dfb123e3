package repository

import (
	"context"
	"errors"
	"strings"

	"zilean/internal/cache"
	"zilean/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateAccount is returned when a registration collides with an
// existing email or username.
var ErrDuplicateAccount = errors.New("account already exists")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDWithWorks(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, params UserSearchParams) ([]models.User, int64, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserSearchParams narrows a user directory search. Zero values mean "no
// filter".
type UserSearchParams struct {
	// Username is matched case-insensitively as a substring.
	Username string
	// IDs restricts to a set of users (the subscriptions filter).
	IDs []uint
	// Sort orders results: "alpha" (username) or "subscribers".
	Sort string

	Page  int
	Limit int
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDWithWorks(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Comics", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Stories", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(email), username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Search(ctx context.Context, params UserSearchParams) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})

	if params.Username != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(params.Username)+"%")
	}
	if params.IDs != nil {
		q = q.Where("id IN ?", params.IDs)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	switch params.Sort {
	case "alpha":
		q = q.Order("username ASC")
	case "subscribers":
		q = q.Order("subscriber_count DESC")
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := params.Page
	if page < 1 {
		page = 1
	}

	var users []models.User
	if err := q.Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, count, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateAccount
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// Delete removes the user and everything hanging off them in one
// transaction: owned works with their comments and rating ledgers, the
// ratings and comments the user left on other authors' work (backing their
// values out of the surviving aggregates), and the follow edges in both
// directions with the counters they inflated. The row itself is hard-deleted
// so the email and username become registrable again.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comicIDs, storyIDs []uint
		if err := tx.Model(&models.Comic{}).Where("author_id = ?", id).Pluck("id", &comicIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Story{}).Where("author_id = ?", id).Pluck("id", &storyIDs).Error; err != nil {
			return err
		}

		if err := deleteOwnedWorks(tx, models.KindComic, comicIDs, &models.Comic{}); err != nil {
			return err
		}
		if err := deleteOwnedWorks(tx, models.KindStory, storyIDs, &models.Story{}); err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Image{}).Error; err != nil {
			return err
		}

		// Ratings given to other authors' surviving works come back out of
		// the aggregates. Ledger rows on the works deleted above are already
		// gone, so nothing is subtracted twice.
		var given []models.Rating
		if err := tx.Where("user_id = ?", id).Find(&given).Error; err != nil {
			return err
		}
		for _, entry := range given {
			table, err := ratedTable(entry.ResourceType)
			if err != nil {
				return err
			}
			if err := tx.Table(table).
				Where("id = ?", entry.ResourceID).
				Updates(map[string]interface{}{
					"rating_total": gorm.Expr("rating_total - ?", entry.Value),
					"rating_count": gorm.Expr("rating_count - 1"),
				}).Error; err != nil {
				return err
			}
			if err := tx.Table(table).
				Where("id = ?", entry.ResourceID).
				Update("rating", gorm.Expr(
					"CASE WHEN rating_count > 0 THEN rating_total / rating_count ELSE 0 END",
				)).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// Outgoing edges give their targets the counter back; incoming edges
		// just disappear.
		var outgoing []models.Subscription
		if err := tx.Where("subscriber_id = ?", id).Find(&outgoing).Error; err != nil {
			return err
		}
		for _, edge := range outgoing {
			if err := tx.Model(&models.User{}).
				Where("id = ? AND subscriber_count > 0", edge.TargetID).
				Update("subscriber_count", gorm.Expr("subscriber_count - 1")).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("subscriber_id = ? OR target_id = ?", id, id).
			Delete(&models.Subscription{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.User{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// deleteOwnedWorks drops an author's works of one kind along with the
// comments and rating ledgers attached to them.
func deleteOwnedWorks(tx *gorm.DB, kind string, ids []uint, model interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("resource_type = ? AND resource_id IN ?", kind, ids).
		Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("resource_type = ? AND resource_id IN ?", kind, ids).
		Delete(&models.Rating{}).Error; err != nil {
		return err
	}
	return tx.Delete(model, ids).Error
}
