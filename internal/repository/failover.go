package repository

import (
	"context"
	"sync/atomic"
	"time"

	"rentalhub/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverRateLimiter uses the primary limiter while it is healthy and
// switches to the fallback when it errors, retrying the primary after
// a recovery interval.
type FailoverRateLimiter struct {
	primary   domain.RateLimiter
	fallback  domain.RateLimiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		allowed, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		f.logger.Error().Err(err).Msg("primary rate limiter failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck.Store(time.Now().UnixNano())
	}

	// Retry the primary after a minute.
	if f.isDown.Load() && time.Since(time.Unix(0, f.lastCheck.Load())) > time.Minute {
		allowed, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			f.isDown.Store(false)
			return allowed, nil
		}
		f.lastCheck.Store(time.Now().UnixNano())
	}

	return f.fallback.Allow(ctx, key, limit, window)
}

var _ domain.RateLimiter = (*FailoverRateLimiter)(nil)
