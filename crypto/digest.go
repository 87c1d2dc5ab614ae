package crypto

import "golang.org/x/crypto/blake2b"

// DigestBody computes the BLAKE2b-512 digest of an HTTP request body, used
// for the protocol plane's `content-digest` header. BLAKE-512 is what the
// Beckn signing profile requires in place of SHA-256.
func DigestBody(body []byte) ([]byte, error) {
	sum := blake2b.Sum512(body)
	return sum[:], nil
}
