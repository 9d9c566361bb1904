package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	t.Run("AllowsUpToLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := limiter.Allow(ctx, "client@example.com", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, "client@example.com", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		allowed, err := limiter.Allow(ctx, "other@example.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("WindowExpiry", func(t *testing.T) {
		s.FastForward(2 * time.Minute)
		allowed, err := limiter.Allow(ctx, "client@example.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		empty := NewRedisRateLimiter(nil)
		_, err := empty.Allow(ctx, "x", 1, time.Minute)
		assert.Error(t, err)
	})
}

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	allowedCount := 0
	for i := 0; i < 10; i++ {
		allowed, err := limiter.Allow(ctx, "client@example.com", 5, time.Minute)
		require.NoError(t, err)
		if allowed {
			allowedCount++
		}
	}
	assert.Equal(t, 5, allowedCount)

	allowed, err := limiter.Allow(ctx, "fresh@example.com", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestFailoverRateLimiter(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("FallsBackWhenPrimaryFails", func(t *testing.T) {
		fallback := NewMemoryRateLimiter()
		limiter := NewFailoverRateLimiter(failingLimiter{}, fallback, &logger)

		allowed, err := limiter.Allow(ctx, "client@example.com", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		// Subsequent calls skip the broken primary.
		allowed, err = limiter.Allow(ctx, "client@example.com", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("UsesPrimaryWhenHealthy", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		defer s.Close()
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		defer client.Close()

		limiter := NewFailoverRateLimiter(NewRedisRateLimiter(client), NewMemoryRateLimiter(), &logger)

		for i := 0; i < 2; i++ {
			allowed, err := limiter.Allow(ctx, "client@example.com", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := limiter.Allow(ctx, "client@example.com", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
