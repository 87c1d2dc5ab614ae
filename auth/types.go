// Package auth builds and verifies the signed-request Authorization header
// every subscriber attaches to protocol-plane calls, grounded on RFC 9421
// message-signature parameters and the Beckn/ONDC signing-string layout.
package auth

import "errors"

// Params holds the parsed fields of a Signature Authorization header.
type Params struct {
	SubscriberID  string
	UniqueKeyID   string
	Domain        string // only set for the Gateway's domain-bound variant
	Algorithm     string
	Created       int64
	Expires       int64
	SignatureB64  string
	HeadersParam  string
}

var (
	ErrMissingAuthHeader    = errors.New("auth: missing Authorization header")
	ErrInvalidScheme        = errors.New("auth: authorization header is not a Signature scheme")
	ErrMissingParam         = errors.New("auth: missing required parameter")
	ErrInvalidKeyID         = errors.New("auth: keyId must have the form subscriber_id|unique_key_id|algorithm")
	ErrInvalidTimestamp     = errors.New("auth: created/expires is not a valid integer")
	ErrUnsupportedAlgorithm = errors.New("auth: unsupported algorithm")
	ErrSignatureExpired     = errors.New("auth: signature expired")
	ErrSignatureInvalid     = errors.New("auth: signature verification failed")
)

// BuildOptions configures BuildAuthHeader.
type BuildOptions struct {
	SubscriberID string
	UniqueKeyID  string
	Domain       string // optional; Gateway signing inserts this into keyId
	PrivateKey   Signer
	Body         []byte
	Created      int64 // defaults to time.Now().Unix() when zero
	Validity     int64 // defaults to 3600 seconds when zero
}

// Signer is the minimal signing capability BuildAuthHeader needs —
// satisfied by crypto/keys.Ed25519KeyPair via its Sign method.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// VerifyOptions configures VerifyAuthHeader.
type VerifyOptions struct {
	Header    string
	Body      []byte
	PublicKey Verifier
	Now       func() int64 // overridable for tests; defaults to time.Now().Unix
}

// Verifier is the minimal verification capability VerifyAuthHeader needs.
type Verifier interface {
	Verify(message, signature []byte) error
}
