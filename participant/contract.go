// Package participant implements the BAP/BPP adapter of §4.6: incoming
// action validation, outgoing signed client, and callback correlation.
// A single Server instance plays either role; which role governs only
// whether the finder-fee validator and the "consume on_* from peers"
// vs. "POST on_* to bap_uri" callback path apply.
package participant

import (
	"context"

	"github.com/beckn-mesh/network/beckn"
)

// ActionHandler computes the business response for one inbound action.
// It runs asynchronously after the synchronous ACK has already been
// sent (§4.6 step 7) — callers must not assume the HTTP response is
// still open by the time this returns.
type ActionHandler func(ctx context.Context, env *beckn.Envelope) (callbackAction string, payload interface{}, err error)

// KeyResolver resolves a subscriber's signing public key. Implemented
// by registry.KeyStore; kept as an interface here so participant has no
// compile-time dependency on the registry package.
type KeyResolver interface {
	ResolveSigningKey(ctx context.Context, subscriberID, uniqueKeyID string) ([]byte, error)
}
