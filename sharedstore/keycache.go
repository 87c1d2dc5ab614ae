package sharedstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beckn-mesh/network/internal/metrics"
)

const keyCacheTTL = 300 * time.Second

func pubkeyKey(subscriberID, uniqueKeyID string) string {
	return fmt.Sprintf("pubkey:%s:%s", subscriberID, uniqueKeyID)
}

// GetCachedKey returns the cached signing public key, or (nil, false) on
// a cache miss. Callers fall through to the Subscriber store on a miss
// and call CacheKey to populate it, per §4.4's cache-aside contract.
func (c *Client) GetCachedKey(ctx context.Context, subscriberID, uniqueKeyID string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, pubkeyKey(subscriberID, uniqueKeyID)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.KeyCacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("key cache lookup failed: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cached key: %w", err)
	}
	metrics.KeyCacheLookups.WithLabelValues("hit").Inc()
	return decoded, true, nil
}

// CacheKey populates the cache-aside entry with a 300s TTL.
func (c *Client) CacheKey(ctx context.Context, subscriberID, uniqueKeyID string, pubKey []byte) error {
	encoded := base64.StdEncoding.EncodeToString(pubKey)
	if err := c.rdb.Set(ctx, pubkeyKey(subscriberID, uniqueKeyID), encoded, keyCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache key: %w", err)
	}
	return nil
}

// InvalidateKey removes the cached entry. Callers MUST invoke this in
// the same logical operation that changes a subscriber's status or
// rotates its signing key (§4.4).
func (c *Client) InvalidateKey(ctx context.Context, subscriberID, uniqueKeyID string) error {
	if err := c.rdb.Del(ctx, pubkeyKey(subscriberID, uniqueKeyID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached key: %w", err)
	}
	metrics.KeyCacheLookups.WithLabelValues("invalidated").Inc()
	return nil
}
