package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"rentalhub/internal/metrics"
	"rentalhub/internal/models"

	"github.com/google/uuid"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *HTTPServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := s.logger.With().Str("request_id", id).Logger().WithContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("actor", actorEmail(r)).
			Msg("http request")
	})
}

// rateLimitMiddleware keys on the actor email when present, the remote
// host otherwise. Health and metrics probes are not limited.
func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	limit := s.cfg.RateLimit.Requests
	if limit <= 0 {
		limit = models.DefaultRateLimitRequests
	}
	window := time.Duration(s.cfg.RateLimit.Window) * time.Second
	if window <= 0 {
		window = models.DefaultRateLimitWindow * time.Second
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		key := actorEmail(r)
		if key == "" {
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
				key = host
			} else {
				key = "unknown"
			}
		}

		allowed, err := s.limiter.Allow(r.Context(), key, limit, window)
		if err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeErrorKind(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
