package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *RedisRepository {
	t.Helper()
	server := miniredis.RunT(t)
	return &RedisRepository{Client: redis.NewClient(&redis.Options{Addr: server.Addr()})}
}

func TestBackupCodeLimiter(t *testing.T) {
	limiter := NewBackupCodeLimiter(newRepo(t), 3, time.Hour)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "acc", start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "acc", start.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 50*time.Minute, retryAfter)

	allowed, _, err = limiter.Allow(ctx, "other", start.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, allowed, "accounts do not share a window")

	// the first hit slides out of the window
	allowed, _, err = limiter.Allow(ctx, "acc", start.Add(time.Hour+time.Second))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCreateAndFindEntry(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	assert.Nil(t, repo.FindOne(ctx, "missing"))
	assert.True(t, repo.CreateEntry(ctx, "key", "value", time.Minute))
	found := repo.FindOne(ctx, "key")
	require.NotNil(t, found)
	assert.Equal(t, "value", *found)
}
