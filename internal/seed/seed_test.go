package seed

import (
	"testing"
	"time"

	"zilean/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Comic{}, &models.Story{},
		&models.Comment{}, &models.Rating{}, &models.Subscription{}, &models.Image{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestFactoryCreateUser(t *testing.T) {
	f := NewFactory(setupSeedDB(t))

	user, err := f.CreateUser()
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected persisted user to have an ID")
	}
	if !user.Verified {
		t.Fatalf("seeded users should be verified")
	}
}

func TestBuildComicTimestamps(t *testing.T) {
	f := NewFactory(nil)
	author := &models.User{ID: 1}

	c := f.BuildComic(author)
	if time.Since(c.CreatedAt) > 91*24*time.Hour {
		t.Fatalf("created_at too old: %v", c.CreatedAt)
	}
	if c.PublishedAt != nil && c.PublishedAt.Before(c.CreatedAt) {
		t.Fatalf("published before created: %v < %v", c.PublishedAt, c.CreatedAt)
	}
}

func TestRateResourceUpdatesAggregates(t *testing.T) {
	db := setupSeedDB(t)
	f := NewFactory(db)

	author, err := f.CreateUser()
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	rater, err := f.CreateUser()
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	comic := f.BuildComic(author)
	if err := f.CreateComicsBatch([]*models.Comic{comic}); err != nil {
		t.Fatalf("CreateComicsBatch: %v", err)
	}

	if err := f.RateResource(rater, comic, 4); err != nil {
		t.Fatalf("RateResource: %v", err)
	}

	var got models.Comic
	if err := db.First(&got, comic.ID).Error; err != nil {
		t.Fatalf("reload comic: %v", err)
	}
	if got.RatingCount != 1 || got.RatingTotal != 4 || got.Rating != 4 {
		t.Fatalf("unexpected aggregates: count=%d total=%v mean=%v",
			got.RatingCount, got.RatingTotal, got.Rating)
	}
}

func TestSeedSmall(t *testing.T) {
	db := setupSeedDB(t)

	// sqlite has no TRUNCATE; skip cleaning.
	if err := Seed(db, Options{NumUsers: 4, NumWorks: 8, ShouldClean: false}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var userCount, workCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount != 4 {
		t.Fatalf("expected 4 users, got %d", userCount)
	}
	var comicCount, storyCount int64
	db.Model(&models.Comic{}).Count(&comicCount)
	db.Model(&models.Story{}).Count(&storyCount)
	workCount = comicCount + storyCount
	if workCount != 8 {
		t.Fatalf("expected 8 works, got %d", workCount)
	}

	var edges []models.Subscription
	if err := db.Find(&edges).Error; err != nil {
		t.Fatalf("load subscriptions: %v", err)
	}
	for _, e := range edges {
		if e.SubscriberID == e.TargetID {
			t.Fatalf("seeder created a self-subscription")
		}
	}
}
