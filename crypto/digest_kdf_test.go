package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestBody(t *testing.T) {
	digest, err := DigestBody([]byte(`{"context":{}}`))
	require.NoError(t, err)
	assert.Len(t, digest, 64) // BLAKE2b-512 output

	digest2, err := DigestBody([]byte(`{"context":{}}`))
	require.NoError(t, err)
	assert.Equal(t, digest, digest2)

	digest3, err := DigestBody([]byte(`{"context":{"x":1}}`))
	require.NoError(t, err)
	assert.NotEqual(t, digest, digest3)
}

func TestDeriveWrappingKey(t *testing.T) {
	key := DeriveWrappingKey([]byte("passphrase"), []byte("salt"))
	assert.Len(t, key, KDFKeyLength)

	same := DeriveWrappingKey([]byte("passphrase"), []byte("salt"))
	assert.Equal(t, key, same)

	different := DeriveWrappingKey([]byte("passphrase"), []byte("other-salt"))
	assert.NotEqual(t, key, different)
}
