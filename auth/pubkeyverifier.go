package auth

import "crypto/ed25519"

// RawEd25519Verifier adapts a raw 32-byte Ed25519 public key — the form
// the Registry's Subscriber store and cache-aside key lookup hand
// back — to the Verifier interface VerifyAuthHeader expects.
type RawEd25519Verifier []byte

// Verify reports whether signature is a valid Ed25519 signature of
// message under this public key.
func (k RawEd25519Verifier) Verify(message, signature []byte) error {
	if !ed25519.Verify(ed25519.PublicKey(k), message, signature) {
		return ErrSignatureInvalid
	}
	return nil
}
