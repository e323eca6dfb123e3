// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"zilean/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample `models.User`. All seeded users
// share the password "password123" and are verified.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    strings.ToLower(gofakeit.Email()),
		Password: string(hashedPassword),
		Verified: true,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// pastInstant spreads seeded timestamps over the last maxDays days.
func (f *Factory) pastInstant(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rand.Intn(maxDays)
	hoursBack := f.rand.Intn(24)
	minsBack := f.rand.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

// BuildComic constructs a comic without persisting it. Roughly three out of
// four seeded comics are published.
func (f *Factory) BuildComic(author *models.User, overrides ...func(*models.Comic)) *models.Comic {
	comic := &models.Comic{
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Paragraph(1, 2, 8, "\n"),
		AuthorID:    author.ID,
		CreatedAt:   f.pastInstant(90),
	}
	if f.rand.Intn(4) != 0 {
		publishedAt := comic.CreatedAt.Add(time.Duration(f.rand.Intn(72)) * time.Hour)
		comic.PublishedAt = &publishedAt
	}

	for _, override := range overrides {
		override(comic)
	}
	return comic
}

// BuildStory constructs a story without persisting it, published with the
// same odds as comics.
func (f *Factory) BuildStory(author *models.User, overrides ...func(*models.Story)) *models.Story {
	story := &models.Story{
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Sentence(12),
		Body:        gofakeit.Paragraph(4, 6, 12, "\n\n"),
		AuthorID:    author.ID,
		CreatedAt:   f.pastInstant(90),
	}
	if f.rand.Intn(4) != 0 {
		publishedAt := story.CreatedAt.Add(time.Duration(f.rand.Intn(72)) * time.Hour)
		story.PublishedAt = &publishedAt
	}

	for _, override := range overrides {
		override(story)
	}
	return story
}

// CreateComicsBatch persists multiple comics in a single DB call.
func (f *Factory) CreateComicsBatch(comics []*models.Comic) error {
	if len(comics) == 0 {
		return nil
	}
	return f.db.Create(&comics).Error
}

// CreateStoriesBatch persists multiple stories in a single DB call.
func (f *Factory) CreateStoriesBatch(stories []*models.Story) error {
	if len(stories) == 0 {
		return nil
	}
	return f.db.Create(&stories).Error
}

// CreateComment persists a comment by the user on the given resource.
func (f *Factory) CreateComment(user *models.User, res models.Resource) (*models.Comment, error) {
	comment := &models.Comment{
		Text:         gofakeit.Sentence(gofakeit.Number(3, 20)),
		UserID:       user.ID,
		ResourceID:   res.ResourceID(),
		ResourceType: res.ResourceKind(),
		CreatedAt:    f.pastInstant(30),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// RateResource records a rating ledger entry and updates the resource's
// aggregate columns the way the rating upsert does.
func (f *Factory) RateResource(user *models.User, res models.Resource, value float64) error {
	entry := &models.Rating{
		UserID:       user.ID,
		ResourceType: res.ResourceKind(),
		ResourceID:   res.ResourceID(),
		Value:        value,
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		table := "comics"
		if res.ResourceKind() == models.KindStory {
			table = "stories"
		}
		if err := tx.Table(table).Where("id = ?", res.ResourceID()).
			Updates(map[string]interface{}{
				"rating_total": gorm.Expr("rating_total + ?", value),
				"rating_count": gorm.Expr("rating_count + 1"),
			}).Error; err != nil {
			return err
		}
		return tx.Table(table).Where("id = ? AND rating_count > 0", res.ResourceID()).
			Update("rating", gorm.Expr("rating_total / rating_count")).Error
	})
}

// Subscribe creates a follow edge and bumps the target's subscriber count.
func (f *Factory) Subscribe(subscriber, target *models.User) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		edge := &models.Subscription{SubscriberID: subscriber.ID, TargetID: target.ID}
		if err := tx.Create(edge).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", target.ID).
			Update("subscriber_count", gorm.Expr("subscriber_count + 1")).Error
	})
}
