package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter keeps a token bucket per actor key. Used standalone
// in single-instance deployments and as the failover fallback.
type MemoryRateLimiter struct {
	limiters sync.Map
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{}
}

func (m *MemoryRateLimiter) getLimiter(key string, limit int, window time.Duration) *rate.Limiter {
	if v, ok := m.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	// limit requests per window, with the full window as burst.
	rps := float64(limit) / window.Seconds()
	lim := rate.NewLimiter(rate.Limit(rps), limit)
	actual, _ := m.limiters.LoadOrStore(key, lim)
	if actualLim, ok := actual.(*rate.Limiter); ok {
		return actualLim
	}
	return lim
}

func (m *MemoryRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.getLimiter(key, limit, window).Allow(), nil
}
