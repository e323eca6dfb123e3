package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zilean/internal/models"
	"zilean/internal/repository"
)

func TestLifecyclePublishIdempotent(t *testing.T) {
	db := setupTestDB(t)
	comics := repository.NewComicRepository(db)
	stories := repository.NewStoryRepository(db)
	svc := NewLifecycleService(comics, stories)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	comic := &models.Comic{Title: "Unnamed Comic", AuthorID: author.ID}
	require.NoError(t, db.Create(comic).Error)

	require.NoError(t, svc.Publish(ctx, comic))
	first, err := comics.GetByID(ctx, comic.ID)
	require.NoError(t, err)
	require.NotNil(t, first.PublishedAt)

	// Publishing again succeeds and refreshes the timestamp.
	require.NoError(t, svc.Publish(ctx, first))
	second, err := comics.GetByID(ctx, comic.ID)
	require.NoError(t, err)
	require.NotNil(t, second.PublishedAt)
	assert.False(t, second.PublishedAt.Before(*first.PublishedAt))
}

func TestLifecycleUnpublishIdempotent(t *testing.T) {
	db := setupTestDB(t)
	comics := repository.NewComicRepository(db)
	stories := repository.NewStoryRepository(db)
	svc := NewLifecycleService(comics, stories)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	story := &models.Story{Title: "Unnamed Story", AuthorID: author.ID}
	require.NoError(t, db.Create(story).Error)

	require.NoError(t, svc.Publish(ctx, story))
	require.NoError(t, svc.Unpublish(ctx, story))

	got, err := stories.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PublishedAt)

	// Unpublishing a draft is a no-op, not an error.
	require.NoError(t, svc.Unpublish(ctx, got))
	got, err = stories.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PublishedAt)
}

type fakeResource struct{ models.Comic }

func (f *fakeResource) ResourceKind() string { return "album" }

func TestLifecycleRejectsUnknownKind(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLifecycleService(repository.NewComicRepository(db), repository.NewStoryRepository(db))

	assert.Error(t, svc.Publish(context.Background(), &fakeResource{}))
}
