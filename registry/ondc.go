package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/beckn-mesh/network/crypto"
	"github.com/beckn-mesh/network/crypto/keys"
)

var (
	ErrMissingKeyMaterial  = errors.New("registry: no local X25519 key configured")
	ErrOnSubscribeFailed   = errors.New("registry: failed to decrypt inbound challenge")
)

// PeerRole implements the parallel `POST /ondc/on_subscribe` endpoint:
// this instance plays the subscriber role against a parent registry,
// decrypting its inbound challenge with the local X25519 private key.
type PeerRole struct {
	localKey *keys.X25519KeyPair
}

// NewPeerRole builds a PeerRole over this instance's local X25519 key
// pair. localKey is nil when no encryption key was configured, in which
// case DecryptChallenge always returns ErrMissingKeyMaterial.
func NewPeerRole(localKey crypto.KeyPair) (*PeerRole, error) {
	if localKey == nil {
		return &PeerRole{}, nil
	}
	x25519Key, ok := localKey.(*keys.X25519KeyPair)
	if !ok {
		return nil, fmt.Errorf("peer role requires an X25519 key pair, got %T", localKey)
	}
	return &PeerRole{localKey: x25519Key}, nil
}

// DecryptChallenge decrypts a base64-encoded envelope and returns the
// plaintext answer, per §4.5's `POST /ondc/on_subscribe` contract.
func (p *PeerRole) DecryptChallenge(_ context.Context, encryptedChallengeB64 string) (string, error) {
	if p.localKey == nil {
		return "", ErrMissingKeyMaterial
	}
	envelope, err := base64.StdEncoding.DecodeString(encryptedChallengeB64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOnSubscribeFailed, err)
	}
	plaintext, err := p.localKey.OpenEnvelope(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOnSubscribeFailed, err)
	}
	return string(plaintext), nil
}
