package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/sharedstore"
)

// RateLimiter implements §4.3's rate limiter: identifies the caller,
// increments its window counter, and rejects with a 429 POLICY-ERROR
// NACK once the count exceeds limit. Fails open on shared-storage
// faults so an infrastructure outage never blocks the protocol plane.
type RateLimiter struct {
	cache  *sharedstore.Client
	limit  int64
	window time.Duration
	log    logger.Logger
}

// NewRateLimiter builds a RateLimiter over the shared cache.
func NewRateLimiter(cache *sharedstore.Client, limit int, window time.Duration, log logger.Logger) *RateLimiter {
	return &RateLimiter{cache: cache, limit: int64(limit), window: window, log: log}
}

// Middleware returns the http.Handler wrapper.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := RawBody(r.Context())
		id := identifyCaller(r, body)

		result, err := rl.cache.IncrementRateCounter(r.Context(), id, rl.limit, rl.window)
		if err != nil {
			rl.log.Warn("rate limiter failing open", logger.String("caller", id), logger.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		remaining := result.Limit - result.Count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetSecs))

		if result.Count > result.Limit {
			beckn.WriteNack(w, http.StatusTooManyRequests, beckn.ErrorTypePolicy, beckn.CodeRateLimit, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
