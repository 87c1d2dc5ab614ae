package registry

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/beckn-mesh/network/crypto/keys"
	"github.com/beckn-mesh/network/sharedstore"
)

// ChallengeIssuer issues and verifies the Registry's one-time encrypted
// subscription challenge (§4.4).
type ChallengeIssuer struct {
	cache *sharedstore.Client
}

// NewChallengeIssuer builds a ChallengeIssuer over the shared cache.
func NewChallengeIssuer(cache *sharedstore.Client) *ChallengeIssuer {
	return &ChallengeIssuer{cache: cache}
}

// Issue generates a fresh challenge, stores it against subscriberID, and
// returns it encrypted to the subscriber's X25519 public key, base64
// encoded for the wire.
func (c *ChallengeIssuer) Issue(ctx context.Context, subscriberID string, recipientX25519Pub []byte) (string, error) {
	value, err := sharedstore.GenerateChallenge()
	if err != nil {
		return "", err
	}
	if err := c.cache.StoreChallenge(ctx, subscriberID, value); err != nil {
		return "", err
	}

	sealed, err := keys.SealEnvelope(recipientX25519Pub, []byte(value))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt challenge: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Verify checks a plaintext challenge answer against the stored value.
// It is single-use: the stored value is deleted on this call regardless
// of outcome.
func (c *ChallengeIssuer) Verify(ctx context.Context, subscriberID, answer string) (bool, error) {
	return c.cache.VerifyChallenge(ctx, subscriberID, answer)
}
