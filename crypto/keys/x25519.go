// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package keys

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	mesh "github.com/beckn-mesh/network/crypto"
)

// gcmTagSize is the AES-GCM authentication tag length in bytes.
const gcmTagSize = 16

// gcmNonceSize is the AES-GCM nonce (IV) length in bytes.
const gcmNonceSize = 12

// X25519KeyPair holds an X25519 private key and its corresponding public key
// bytes. The Registry uses this for the one-time encrypted subscription
// challenge; it never signs.
type X25519KeyPair struct {
	privateKey *ecdh.PrivateKey
	publicKey  *ecdh.PublicKey
	id         string
}

// GenerateX25519KeyPair generates a new ephemeral X25519 key pair.
func GenerateX25519KeyPair() (mesh.KeyPair, error) {
	privateKey, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral ECDH key: %w", err)
	}
	publicKey := privateKey.PublicKey()

	pubKeyBytes := publicKey.Bytes()
	hash := sha256.Sum256(pubKeyBytes)
	id := hex.EncodeToString(hash[:8])

	return &X25519KeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         id,
	}, nil
}

// PublicKey returns the public key
func (kp *X25519KeyPair) PublicKey() crypto.PublicKey {
	return kp.publicKey
}

// PublicBytesKey returns the raw 32-byte public key
func (kp *X25519KeyPair) PublicBytesKey() []byte {
	return kp.publicKey.Bytes()
}

// PrivateKey returns the private key
func (kp *X25519KeyPair) PrivateKey() crypto.PrivateKey {
	return kp.privateKey
}

// Type returns the key type
func (kp *X25519KeyPair) Type() mesh.KeyType {
	return mesh.KeyTypeX25519
}

// ID returns a unique identifier for this key pair
func (kp *X25519KeyPair) ID() string {
	return kp.id
}

// Sign is not supported; X25519 keys only perform ECDH key agreement.
func (kp *X25519KeyPair) Sign(message []byte) ([]byte, error) {
	return nil, mesh.ErrSignNotSupported
}

// Verify is not supported; X25519 keys only perform ECDH key agreement.
func (kp *X25519KeyPair) Verify(message, signature []byte) error {
	return mesh.ErrVerifyNotSupported
}

// DeriveSharedSecret computes the raw 32-byte X25519 ECDH shared point with
// a peer's public key bytes, rejecting the low-order/identity point.
func (kp *X25519KeyPair) DeriveSharedSecret(peerPubBytes []byte) ([]byte, error) {
	curve := ecdh.X25519()
	peerPub, err := curve.NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse peer public key: %w", err)
	}

	shared, err := kp.privateKey.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shared secret: %w", err)
	}

	var zero [32]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return nil, fmt.Errorf("x25519: low-order or identity point")
	}

	return shared, nil
}

// SealEnvelope encrypts plaintext to recipientPub using an ephemeral
// X25519 key and AES-256-GCM, keyed directly on the raw 32-byte ECDH
// shared secret (spec.md's "shared secret first 32 bytes -> AES-256-GCM
// key" — X25519's shared point is already exactly 32 bytes, so no
// truncation is needed). The wire format is
// ephemeral_pub(32) || iv(12) || tag(16) || ciphertext — matching the
// Registry's encrypted challenge envelope. AES-GCM's Seal appends the tag
// after the ciphertext by default, so it is re-sliced here to match.
func SealEnvelope(recipientPub []byte, plaintext []byte) ([]byte, error) {
	ephemeral, err := GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	ephKP := ephemeral.(*X25519KeyPair)

	key, err := ephKP.DeriveSharedSecret(recipientPub)
	if err != nil {
		return nil, err
	}

	transcript := append(append([]byte{}, ephKP.PublicBytesKey()...), recipientPub...)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, iv, plaintext, transcript)
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	out := make([]byte, 0, len(ephKP.PublicBytesKey())+gcmNonceSize+gcmTagSize+len(ciphertext))
	out = append(out, ephKP.PublicBytesKey()...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return out, nil
}

// OpenEnvelope reverses SealEnvelope using the recipient's private key.
func (kp *X25519KeyPair) OpenEnvelope(envelope []byte) ([]byte, error) {
	const pubLen = 32
	if len(envelope) < pubLen+gcmNonceSize+gcmTagSize {
		return nil, fmt.Errorf("envelope too short")
	}

	ephPub := envelope[:pubLen]
	iv := envelope[pubLen : pubLen+gcmNonceSize]
	tag := envelope[pubLen+gcmNonceSize : pubLen+gcmNonceSize+gcmTagSize]
	ciphertext := envelope[pubLen+gcmNonceSize+gcmTagSize:]

	key, err := kp.DeriveSharedSecret(ephPub)
	if err != nil {
		return nil, err
	}

	transcript := append(append([]byte{}, ephPub...), kp.PublicBytesKey()...)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)
	return aead.Open(nil, iv, sealed, transcript)
}

// ConvertEd25519PrivToX25519 turns an Ed25519 private key into the X25519
// scalar, letting a subscriber reuse its one signing identity for the
// Registry's ECDH challenge instead of publishing a second key.
func ConvertEd25519PrivToX25519(privKey crypto.PrivateKey) ([]byte, error) {
	edPriv, ok := privKey.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PrivateKey, got %T", privKey)
	}

	if l := len(edPriv); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("bad Ed25519 priv length: %d", l)
	}
	seed := edPriv.Seed()
	h := sha512.Sum512(seed) // RFC 8032 §5.1.5
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	var xPriv [32]byte
	copy(xPriv[:], h[:32])
	return xPriv[:], nil
}

// ConvertEd25519PubToX25519 turns an Ed25519 public key into its X25519
// (Montgomery) form.
func ConvertEd25519PubToX25519(pubKey crypto.PublicKey) ([]byte, error) {
	edPub, ok := pubKey.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PublicKey, got %T", pubKey)
	}

	if l := len(edPub); l != ed25519.PublicKeySize {
		return nil, fmt.Errorf("bad Ed25519 pub length: %d", l)
	}
	P, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 pub: %w", err)
	}
	return P.BytesMontgomery(), nil
}

// X25519FromEd25519Priv builds an X25519 KeyPair from a subscriber's existing
// Ed25519 signing key, so the Registry challenge/response can reuse the key
// already on file instead of requiring a second published key.
func X25519FromEd25519Priv(privKey ed25519.PrivateKey) (*X25519KeyPair, error) {
	xPrivBytes, err := ConvertEd25519PrivToX25519(privKey)
	if err != nil {
		return nil, err
	}
	xPriv, err := ecdh.X25519().NewPrivateKey(xPrivBytes)
	if err != nil {
		return nil, err
	}

	pub := xPriv.PublicKey()
	hash := sha256.Sum256(pub.Bytes())
	id := hex.EncodeToString(hash[:8])

	return &X25519KeyPair{privateKey: xPriv, publicKey: pub, id: id}, nil
}
