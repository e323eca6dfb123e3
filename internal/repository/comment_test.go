package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zilean/internal/models"
)

func TestCommentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")

	now := time.Now()
	comic := &models.Comic{Title: "Unnamed Comic", AuthorID: author.ID, PublishedAt: &now}
	require.NoError(t, db.Create(comic).Error)

	t.Run("add and list in creation order", func(t *testing.T) {
		first := &models.Comment{
			Text:         "first",
			UserID:       commenter.ID,
			ResourceID:   comic.ID,
			ResourceType: models.KindComic,
			CreatedAt:    now.Add(-time.Minute),
		}
		second := &models.Comment{
			Text:         "second",
			UserID:       author.ID,
			ResourceID:   comic.ID,
			ResourceType: models.KindComic,
			CreatedAt:    now,
		}
		require.NoError(t, repo.Add(ctx, first))
		require.NoError(t, repo.Add(ctx, second))

		comments, err := repo.ListForResource(ctx, models.KindComic, comic.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "first", comments[0].Text)
		assert.Equal(t, "second", comments[1].Text)
	})

	t.Run("delete matches on author and creation time", func(t *testing.T) {
		n, err := repo.DeleteByCreatedAt(ctx, models.KindComic, comic.ID, commenter.ID, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		comments, err := repo.ListForResource(ctx, models.KindComic, comic.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "second", comments[0].Text)
	})

	t.Run("delete with wrong timestamp removes nothing", func(t *testing.T) {
		n, err := repo.DeleteByCreatedAt(ctx, models.KindComic, comic.ID, author.ID, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete with wrong author removes nothing", func(t *testing.T) {
		n, err := repo.DeleteByCreatedAt(ctx, models.KindComic, comic.ID, commenter.ID, now)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
