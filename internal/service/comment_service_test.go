package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zilean/internal/models"
	"zilean/internal/repository"
)

func TestCommentAddListDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCommentService(repository.NewCommentRepository(db))
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")

	now := time.Now()
	comic := &models.Comic{Title: "Unnamed Comic", AuthorID: author.ID, PublishedAt: &now}
	require.NoError(t, db.Create(comic).Error)

	added, err := svc.Add(ctx, comic, commenter.ID, "great chapter")
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.Equal(t, commenter.ID, added.UserID)

	comments, err := svc.List(ctx, comic)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "great chapter", comments[0].Text)

	require.NoError(t, svc.Delete(ctx, comic, commenter.ID, added.CreatedAt))

	comments, err = svc.List(ctx, comic)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentRejectsBlank(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCommentService(repository.NewCommentRepository(db))

	author := createTestUser(t, db, "author")
	now := time.Now()
	comic := &models.Comic{Title: "Unnamed Comic", AuthorID: author.ID, PublishedAt: &now}
	require.NoError(t, db.Create(comic).Error)

	_, err := svc.Add(context.Background(), comic, author.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)
}

func TestCommentDeleteRequiresExactIdentity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCommentService(repository.NewCommentRepository(db))
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")
	now := time.Now()
	comic := &models.Comic{Title: "Unnamed Comic", AuthorID: author.ID, PublishedAt: &now}
	require.NoError(t, db.Create(comic).Error)

	added, err := svc.Add(ctx, comic, commenter.ID, "mine")
	require.NoError(t, err)

	// Wrong author cannot delete someone else's comment.
	err = svc.Delete(ctx, comic, author.ID, added.CreatedAt)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	// Wrong timestamp matches nothing.
	err = svc.Delete(ctx, comic, commenter.ID, added.CreatedAt.Add(time.Second))
	assert.ErrorIs(t, err, ErrCommentNotFound)
}
