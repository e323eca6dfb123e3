package seed

import (
	"fmt"
	"log"

	"zilean/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumWorks    int
	ShouldClean bool
}

// Seed populates the database with test data: verified users, a mix of
// published and draft comics and stories, a follow graph, ratings and
// comments.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d works...", opts.NumUsers, opts.NumWorks)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d test users created", len(users))

	comics, stories, err := createWorks(f, users, opts.NumWorks)
	if err != nil {
		return fmt.Errorf("failed to create works: %w", err)
	}
	log.Printf("✓ %d comics and %d stories created", len(comics), len(stories))

	if err := createFollowGraph(f, users); err != nil {
		return fmt.Errorf("failed to create subscriptions: %w", err)
	}
	log.Println("✓ follow graph created")

	if err := createEngagement(f, users, comics, stories); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Println("✓ ratings and comments created")

	log.Println("🎉 Database seeding completed successfully!")
	log.Println("📧 All test users have the password: password123")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE comments, ratings, subscriptions, comics, stories, images, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

// createWorks splits the work budget roughly in half between comics and
// stories, spread round-robin over the authors.
func createWorks(f *Factory, users []*models.User, total int) ([]*models.Comic, []*models.Story, error) {
	comics := make([]*models.Comic, 0, total/2)
	stories := make([]*models.Story, 0, total-total/2)

	for i := 0; i < total; i++ {
		author := users[i%len(users)]
		if i%2 == 0 {
			comics = append(comics, f.BuildComic(author))
		} else {
			stories = append(stories, f.BuildStory(author))
		}
	}

	if err := f.CreateComicsBatch(comics); err != nil {
		return nil, nil, err
	}
	if err := f.CreateStoriesBatch(stories); err != nil {
		return nil, nil, err
	}
	return comics, stories, nil
}

// createFollowGraph subscribes each user to a handful of others.
func createFollowGraph(f *Factory, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	for i, subscriber := range users {
		targets := f.rand.Intn(5) + 1
		for j := 1; j <= targets; j++ {
			target := users[(i+j)%len(users)]
			if target.ID == subscriber.ID {
				continue
			}
			if err := f.Subscribe(subscriber, target); err != nil {
				return err
			}
		}
	}
	return nil
}

// createEngagement rates and comments on published works only, matching what
// the API would have allowed.
func createEngagement(f *Factory, users []*models.User, comics []*models.Comic, stories []*models.Story) error {
	published := make([]models.Resource, 0, len(comics)+len(stories))
	for _, c := range comics {
		if c.PublishedAt != nil {
			published = append(published, c)
		}
	}
	for _, s := range stories {
		if s.PublishedAt != nil {
			published = append(published, s)
		}
	}

	for _, res := range published {
		raters := f.rand.Intn(len(users)) + 1
		for i := 0; i < raters; i++ {
			if err := f.RateResource(users[i], res, float64(f.rand.Intn(6))); err != nil {
				return err
			}
		}
		commenters := f.rand.Intn(4)
		for i := 0; i < commenters; i++ {
			if _, err := f.CreateComment(users[f.rand.Intn(len(users))], res); err != nil {
				return err
			}
		}
	}
	return nil
}
