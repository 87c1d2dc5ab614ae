package sharedstore

import (
	"context"
	"fmt"
	"time"
)

func rateLimitKey(id string) string {
	return fmt.Sprintf("ratelimit:%s", id)
}

// RateLimitResult reports the counter state after an increment.
type RateLimitResult struct {
	Count     int64
	Limit     int64
	ResetSecs int64
}

// IncrementRateCounter implements §4.3's rate limiter: increments
// ratelimit:{id} and, only when the key is newly created (count==1),
// sets its expiry to window. Tolerates the documented off-by-one race
// between INCR and EXPIRE under concurrent first requests.
func (c *Client) IncrementRateCounter(ctx context.Context, id string, limit int64, window time.Duration) (RateLimitResult, error) {
	key := rateLimitKey(id)

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("rate counter increment failed: %w", err)
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return RateLimitResult{}, fmt.Errorf("rate counter expire failed: %w", err)
		}
	}

	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("rate counter ttl failed: %w", err)
	}
	resetSecs := int64(ttl / time.Second)
	if resetSecs < 0 {
		resetSecs = int64(window / time.Second)
	}

	return RateLimitResult{Count: count, Limit: limit, ResetSecs: resetSecs}, nil
}
