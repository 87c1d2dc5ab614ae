package crypto

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
)

// KDFIterations and KDFKeyLength are the fixed PBKDF2 parameters used to
// derive a local wrapping key for private key material loaded from config.
// This never touches the wire protocol — it only protects keys at rest.
const (
	KDFIterations = 100_000
	KDFKeyLength  = 32
)

// DeriveWrappingKey runs PBKDF2-HMAC-SHA512 over passphrase/salt to produce
// a 32-byte key suitable for AES-256-GCM wrapping of a signing key file.
func DeriveWrappingKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, KDFIterations, KDFKeyLength, sha512.New)
}
