package server

import (
	"net/http"
	"testing"

	"zilean/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessCheck(t *testing.T) {
	app, _, _ := setupTestServer(t)
	resp := doRequest(t, app, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "up", body["status"])
}

func TestReadinessCheck(t *testing.T) {
	app, _, _ := setupTestServer(t)

	// Redis is optional; the probe reports it without failing readiness.
	t.Run("NoRedisConfigured", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/health/ready", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "healthy", body["status"])
		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "unavailable", checks["redis"])
	})

	t.Run("RedisHealthy", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		t.Cleanup(func() { cache.SetClient(nil) })

		resp := doRequest(t, app, http.MethodGet, "/health/ready", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "healthy", checks["redis"])
	})
}
