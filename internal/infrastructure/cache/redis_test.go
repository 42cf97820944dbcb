package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url", logger.NewNop())
	assert.Error(t, err)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	url := os.Getenv("RECIPESYNC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RECIPESYNC_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, logger.NewNop())
	require.NoError(t, err)
	defer c.Close()

	key := "test:" + time.Now().Format(time.RFC3339Nano)

	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, key, []byte(`{"calories":52}`), time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"calories":52}`, string(got))

	require.NoError(t, c.Delete(ctx, key))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
