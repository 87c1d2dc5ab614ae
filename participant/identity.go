package participant

import "github.com/beckn-mesh/network/auth"

// Identity is the signing identity this instance presents to the
// network when building outbound auth headers and callbacks.
type Identity struct {
	SubscriberID string
	UniqueKeyID  string
	Domain       string // non-empty only for the Gateway's domain-bound keyId variant
	Signer       auth.Signer
}
