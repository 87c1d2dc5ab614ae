package sharedstore

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beckn-mesh/network/internal/metrics"
)

const challengeTTL = 300 * time.Second

func challengeKey(subscriberID string) string {
	return fmt.Sprintf("challenge:%s", subscriberID)
}

// GenerateChallenge produces 32 random bytes, base64-encoded, per §4.4.
func GenerateChallenge() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate challenge: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// StoreChallenge writes the one-time challenge value with a 300s TTL.
func (c *Client) StoreChallenge(ctx context.Context, subscriberID, value string) error {
	if err := c.rdb.Set(ctx, challengeKey(subscriberID), value, challengeTTL).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	metrics.ChallengesIssued.WithLabelValues("issued").Inc()
	return nil
}

// VerifyChallenge implements the atomic read-then-delete single-use
// check of §4.4: the stored value is deleted on ANY verify attempt,
// regardless of outcome, so a second call with the correct answer also
// returns false.
func (c *Client) VerifyChallenge(ctx context.Context, subscriberID, answer string) (bool, error) {
	key := challengeKey(subscriberID)

	stored, err := c.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.ChallengesIssued.WithLabelValues("expired").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read challenge: %w", err)
	}

	ok := subtle.ConstantTimeCompare([]byte(stored), []byte(answer)) == 1
	if ok {
		metrics.ChallengesIssued.WithLabelValues("verified").Inc()
	} else {
		metrics.ChallengesIssued.WithLabelValues("failed").Inc()
	}
	return ok, nil
}
