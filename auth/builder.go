package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	mesh "github.com/beckn-mesh/network/crypto"
)

const defaultValiditySeconds = 3600

// DigestHeader computes the BLAKE-512 content-digest header value for a
// request body, per spec: "BLAKE-512=" + base64(digest).
func DigestHeader(body []byte) (string, error) {
	digest, err := mesh.DigestBody(body)
	if err != nil {
		return "", err
	}
	return "BLAKE-512=" + base64.StdEncoding.EncodeToString(digest), nil
}

// SigningString builds the exact signing-string bytes: one "name: value"
// line per covered component, in the fixed (created, expires, digest) order.
func SigningString(created, expires int64, digestHeader string) []byte {
	return []byte(fmt.Sprintf("(created): %d\n(expires): %d\ndigest: %s", created, expires, digestHeader))
}

// BuildAuthHeader signs body and composes the Signature Authorization header.
func BuildAuthHeader(opts BuildOptions) (string, error) {
	if opts.SubscriberID == "" || opts.UniqueKeyID == "" {
		return "", ErrMissingParam
	}

	created := opts.Created
	if created == 0 {
		created = time.Now().Unix()
	}
	validity := opts.Validity
	if validity == 0 {
		validity = defaultValiditySeconds
	}
	expires := created + validity

	digestHdr, err := DigestHeader(opts.Body)
	if err != nil {
		return "", err
	}

	signature, err := opts.PrivateKey.Sign(SigningString(created, expires, digestHdr))
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}

	keyID := opts.SubscriberID + "|" + opts.UniqueKeyID
	if opts.Domain != "" {
		keyID += "|" + opts.Domain
	}
	keyID += "|ed25519"

	return fmt.Sprintf(
		`Signature keyId="%s", algorithm="ed25519", created="%d", expires="%d", headers="(created) (expires) digest", signature="%s"`,
		keyID, created, expires, base64.StdEncoding.EncodeToString(signature),
	), nil
}
