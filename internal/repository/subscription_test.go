package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zilean/internal/models"
)

func TestSubscriptionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	reader := createTestUser(t, db, "reader")
	author := createTestUser(t, db, "writer")

	subscriberCount := func(id uint) int64 {
		var u models.User
		require.NoError(t, db.First(&u, id).Error)
		return u.SubscriberCount
	}

	t.Run("subscribe adds edge and increments counter", func(t *testing.T) {
		require.NoError(t, repo.Subscribe(ctx, reader.ID, author.ID))
		assert.Equal(t, int64(1), subscriberCount(author.ID))

		ids, err := repo.TargetIDs(ctx, reader.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{author.ID}, ids)
	})

	t.Run("duplicate subscribe fails and counter is unchanged", func(t *testing.T) {
		err := repo.Subscribe(ctx, reader.ID, author.ID)
		assert.ErrorIs(t, err, ErrAlreadySubscribed)
		assert.Equal(t, int64(1), subscriberCount(author.ID))
	})

	t.Run("unsubscribe removes edge and decrements counter", func(t *testing.T) {
		require.NoError(t, repo.Unsubscribe(ctx, reader.ID, author.ID))
		assert.Equal(t, int64(0), subscriberCount(author.ID))
	})

	t.Run("unsubscribe without edge fails", func(t *testing.T) {
		err := repo.Unsubscribe(ctx, reader.ID, author.ID)
		assert.ErrorIs(t, err, ErrNotSubscribed)
		assert.Equal(t, int64(0), subscriberCount(author.ID))
	})

	t.Run("resubscribing after unsubscribe works", func(t *testing.T) {
		require.NoError(t, repo.Subscribe(ctx, reader.ID, author.ID))
		assert.Equal(t, int64(1), subscriberCount(author.ID))

		targets, err := repo.ListTargets(ctx, reader.ID)
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, author.ID, targets[0].ID)
	})

	t.Run("self subscription is permitted", func(t *testing.T) {
		require.NoError(t, repo.Subscribe(ctx, author.ID, author.ID))
		assert.Equal(t, int64(2), subscriberCount(author.ID))
	})
}
