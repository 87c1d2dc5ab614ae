package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519KeyPair(t *testing.T) {
	t.Run("GenerateKeyPair", func(t *testing.T) {
		keyPair, err := GenerateEd25519KeyPair()
		require.NoError(t, err)
		assert.NotNil(t, keyPair.PublicKey())
		assert.NotNil(t, keyPair.PrivateKey())
		assert.NotEmpty(t, keyPair.ID())
	})

	t.Run("SignAndVerify", func(t *testing.T) {
		keyPair, err := GenerateEd25519KeyPair()
		require.NoError(t, err)

		message := []byte("POST /on_subscribe")
		signature, err := keyPair.Sign(message)
		require.NoError(t, err)
		assert.NoError(t, keyPair.Verify(message, signature))
	})

	t.Run("VerifyFailsOnTamperedMessage", func(t *testing.T) {
		keyPair, err := GenerateEd25519KeyPair()
		require.NoError(t, err)

		signature, err := keyPair.Sign([]byte("original"))
		require.NoError(t, err)
		assert.Error(t, keyPair.Verify([]byte("tampered"), signature))
	})
}
