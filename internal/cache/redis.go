// Package cache provides the Redis-backed utilities the API leans on:
// cache-aside reads for hot rows, session token revocation and publish-event
// fanout. Every helper degrades to a no-op when Redis is not configured, so
// the API runs fine without it.
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"zilean/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// metricsHook feeds command failures into the prometheus error counter so a
// flapping Redis shows up on the dashboard instead of only in degraded cache
// hit rates.
type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// redisOptions accepts either a bare host:port or a redis:// URL.
func redisOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects the package client. Connection problems are logged and
// leave caching disabled rather than failing startup.
func InitRedis(addr string) {
	opts, err := redisOptions(addr)
	if err != nil {
		log.Printf("invalid REDIS_URL %q: %v (running without cache)", addr, err)
		client = nil
		return
	}

	c := redis.NewClient(opts)
	c.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at %s: %v (running without cache)", addr, err)
		client = nil
		return
	}

	log.Printf("redis connected at %s", addr)
	client = c
}

// ErrNotConfigured is returned by Ping when no Redis client is active.
var ErrNotConfigured = errors.New("redis not configured")

// Ping reports cache health for the readiness probe.
func Ping(ctx context.Context) error {
	if client == nil {
		return ErrNotConfigured
	}
	return client.Ping(ctx).Err()
}

// SetClient replaces the active Redis client. Used by tests with miniredis.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
