package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	ComicKeyPrefix     = "comic:%d"
	StoryKeyPrefix     = "story:%d"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	UserTTL  = 5 * time.Minute
	ComicTTL = 10 * time.Minute
	StoryTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ComicKey(comicID uint) string {
	return fmt.Sprintf(ComicKeyPrefix, comicID)
}

func StoryKey(storyID uint) string {
	return fmt.Sprintf(StoryKeyPrefix, storyID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateComic(ctx context.Context, comicID uint) {
	Invalidate(ctx, ComicKey(comicID))
}

func InvalidateStory(ctx context.Context, storyID uint) {
	Invalidate(ctx, StoryKey(storyID))
}

// BlacklistToken records a revoked token ID until its natural expiry.
func BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether the token ID has been revoked. When
// Redis is unavailable the token is treated as valid.
func IsTokenBlacklisted(ctx context.Context, jti string) bool {
	if client == nil {
		return false
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
