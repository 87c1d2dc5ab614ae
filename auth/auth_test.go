package auth

import (
	"testing"

	"github.com/beckn-mesh/network/crypto/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateSigner(t *testing.T) (Signer, Verifier) {
	t.Helper()
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	return kp, kp
}

func TestBuildAndVerifyAuthHeader(t *testing.T) {
	signer, verifier := generateSigner(t)
	body := []byte(`{"context":{"action":"search"}}`)

	header, err := BuildAuthHeader(BuildOptions{
		SubscriberID: "bap.example.com",
		UniqueKeyID:  "key1",
		PrivateKey:   signer,
		Body:         body,
		Created:      1000,
		Validity:     3600,
	})
	require.NoError(t, err)
	assert.Contains(t, header, `keyId="bap.example.com|key1|ed25519"`)

	ok, err := VerifyAuthHeader(VerifyOptions{
		Header:    header,
		Body:      body,
		PublicKey: verifier,
		Now:       func() int64 { return 1500 },
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAuthHeader_DomainBoundGatewayKeyID(t *testing.T) {
	signer, verifier := generateSigner(t)
	body := []byte(`{"context":{}}`)

	header, err := BuildAuthHeader(BuildOptions{
		SubscriberID: "gateway.example.com",
		UniqueKeyID:  "gwkey",
		Domain:       "nic2004:52110",
		PrivateKey:   signer,
		Body:         body,
		Created:      1000,
	})
	require.NoError(t, err)

	params, err := ParseAuthHeader(header)
	require.NoError(t, err)
	assert.Equal(t, "gateway.example.com", params.SubscriberID)
	assert.Equal(t, "gwkey", params.UniqueKeyID)
	assert.Equal(t, "nic2004:52110", params.Domain)

	ok, err := VerifyAuthHeader(VerifyOptions{
		Header: header, Body: body, PublicKey: verifier,
		Now: func() int64 { return 1000 },
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAuthHeader_ExpiredBeyondClockSkew(t *testing.T) {
	signer, verifier := generateSigner(t)
	body := []byte("payload")

	header, err := BuildAuthHeader(BuildOptions{
		SubscriberID: "bap.example.com", UniqueKeyID: "key1",
		PrivateKey: signer, Body: body, Created: 1000, Validity: 100,
	})
	require.NoError(t, err)

	ok, err := VerifyAuthHeader(VerifyOptions{
		Header: header, Body: body, PublicKey: verifier,
		Now: func() int64 { return 1000 + 100 + clockSkewToleranceSeconds + 1 },
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrSignatureExpired)
}

func TestVerifyAuthHeader_WithinClockSkewGrace(t *testing.T) {
	signer, verifier := generateSigner(t)
	body := []byte("payload")

	header, err := BuildAuthHeader(BuildOptions{
		SubscriberID: "bap.example.com", UniqueKeyID: "key1",
		PrivateKey: signer, Body: body, Created: 1000, Validity: 100,
	})
	require.NoError(t, err)

	ok, err := VerifyAuthHeader(VerifyOptions{
		Header: header, Body: body, PublicKey: verifier,
		Now: func() int64 { return 1000 + 100 + clockSkewToleranceSeconds },
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAuthHeader_TamperedBodyFailsDigest(t *testing.T) {
	signer, verifier := generateSigner(t)

	header, err := BuildAuthHeader(BuildOptions{
		SubscriberID: "bap.example.com", UniqueKeyID: "key1",
		PrivateKey: signer, Body: []byte("original"), Created: 1000,
	})
	require.NoError(t, err)

	ok, err := VerifyAuthHeader(VerifyOptions{
		Header: header, Body: []byte("tampered"), PublicKey: verifier,
		Now: func() int64 { return 1000 },
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestParseAuthHeader_ToleratesWhitespaceAndOrder(t *testing.T) {
	header := `Signature   signature="c2ln", created="1000",   keyId="bap.example.com|key1|ed25519"  ,expires="2000", algorithm="ed25519", headers="(created) (expires) digest"`
	params, err := ParseAuthHeader(header)
	require.NoError(t, err)
	assert.Equal(t, "bap.example.com", params.SubscriberID)
	assert.Equal(t, "key1", params.UniqueKeyID)
	assert.Equal(t, int64(1000), params.Created)
	assert.Equal(t, int64(2000), params.Expires)
}

func TestParseAuthHeader_MissingScheme(t *testing.T) {
	_, err := ParseAuthHeader(`Bearer abc`)
	assert.ErrorIs(t, err, ErrInvalidScheme)
}

func TestParseAuthHeader_MissingParam(t *testing.T) {
	_, err := ParseAuthHeader(`Signature keyId="a|b|ed25519", algorithm="ed25519"`)
	assert.ErrorIs(t, err, ErrMissingParam)
}

func TestParseAuthHeader_MalformedKeyID(t *testing.T) {
	_, err := ParseAuthHeader(`Signature keyId="onlyonepart", algorithm="ed25519", created="1", expires="2", signature="c2ln"`)
	assert.ErrorIs(t, err, ErrInvalidKeyID)
}

func TestVerifyAuthHeader_EmptyBodyAllowed(t *testing.T) {
	signer, verifier := generateSigner(t)

	header, err := BuildAuthHeader(BuildOptions{
		SubscriberID: "bap.example.com", UniqueKeyID: "key1",
		PrivateKey: signer, Body: nil, Created: 1000,
	})
	require.NoError(t, err)

	ok, err := VerifyAuthHeader(VerifyOptions{
		Header: header, Body: nil, PublicKey: verifier,
		Now: func() int64 { return 1000 },
	})
	require.NoError(t, err)
	assert.True(t, ok)
}
