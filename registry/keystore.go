// Package registry implements the Registry service: the cache-aside
// public-key lookup, the one-time encrypted subscription challenge, and
// the subscription state machine of spec §4.4/§4.5.
package registry

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/beckn-mesh/network/pkg/storage"
	"github.com/beckn-mesh/network/sharedstore"
)

// KeyStore resolves a subscriber's signing public key, cache-aside in
// front of the authoritative Subscriber store (§4.4).
type KeyStore struct {
	cache *sharedstore.Client
	subs  storage.SubscriberStore
	group singleflight.Group
}

// NewKeyStore builds a KeyStore over a shared cache and the
// authoritative subscriber store.
func NewKeyStore(cache *sharedstore.Client, subs storage.SubscriberStore) *KeyStore {
	return &KeyStore{cache: cache, subs: subs}
}

// ResolveSigningKey implements the cache-aside lookup: cache hit returns
// directly; a miss loads the Subscriber row, populates the cache, and
// returns its signing_public_key. Concurrent misses for the same
// subscriberID/uniqueKeyID — an auth burst hitting a just-evicted key —
// collapse onto a single store lookup via singleflight rather than each
// caller racing its own fill of the cache.
func (k *KeyStore) ResolveSigningKey(ctx context.Context, subscriberID, uniqueKeyID string) ([]byte, error) {
	if cached, hit, err := k.cache.GetCachedKey(ctx, subscriberID, uniqueKeyID); err != nil {
		return nil, err
	} else if hit {
		return cached, nil
	}

	key := subscriberID + "/" + uniqueKeyID
	value, err, _ := k.group.Do(key, func() (interface{}, error) {
		sub, err := k.subs.Get(ctx, subscriberID, uniqueKeyID)
		if err != nil {
			return nil, fmt.Errorf("unknown subscriber: %w", err)
		}
		if len(sub.SigningPubKey) == 0 {
			return nil, fmt.Errorf("subscriber %s/%s has no signing key on file", subscriberID, uniqueKeyID)
		}
		if err := k.cache.CacheKey(ctx, subscriberID, uniqueKeyID, sub.SigningPubKey); err != nil {
			return nil, err
		}
		return sub.SigningPubKey, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// InvalidateKey must be called by the subscription state machine in the
// same logical operation that mutates a subscriber's status or key.
func (k *KeyStore) InvalidateKey(ctx context.Context, subscriberID, uniqueKeyID string) error {
	return k.cache.InvalidateKey(ctx, subscriberID, uniqueKeyID)
}
