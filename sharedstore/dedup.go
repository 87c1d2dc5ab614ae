package sharedstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 300 * time.Second

func dedupKey(messageID string) string {
	return fmt.Sprintf("msg:dedup:%s", messageID)
}

// CheckAndSetDedup implements §4.3's duplicate detector: it returns
// true (already seen) if msg:dedup:{message_id} exists; otherwise it
// writes the key with action as its value and a 300s TTL and returns
// false. The check and the set are a single SETNX, so two concurrent
// requests with the same message_id cannot both be admitted.
func (c *Client) CheckAndSetDedup(ctx context.Context, messageID, action string) (alreadySeen bool, err error) {
	key := dedupKey(messageID)

	set, err := c.rdb.SetNX(ctx, key, action, dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return !set, nil
}

// DedupAction returns the action recorded for a message_id, if present.
func (c *Client) DedupAction(ctx context.Context, messageID string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, dedupKey(messageID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dedup lookup failed: %w", err)
	}
	return val, true, nil
}
