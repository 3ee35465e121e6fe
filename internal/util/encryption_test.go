package util

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestEncryptDecrypt(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		encrypted, err := Encrypt(testKey, "EAAG-some-page-token")
		require.NoError(t, err)
		assert.NotEqual(t, "EAAG-some-page-token", encrypted)

		decrypted, err := Decrypt(testKey, encrypted)
		require.NoError(t, err)
		assert.Equal(t, "EAAG-some-page-token", decrypted)
	})

	t.Run("unique ciphertext per call", func(t *testing.T) {
		a, err := Encrypt(testKey, "secret")
		require.NoError(t, err)
		b, err := Encrypt(testKey, "secret")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := Encrypt("abcd", "secret")
		assert.Error(t, err)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		encrypted, err := Encrypt(testKey, "secret")
		require.NoError(t, err)

		otherKey := hex.EncodeToString([]byte(strings.Repeat("x", 32)))
		_, err = Decrypt(otherKey, encrypted)
		assert.Error(t, err)
	})

	t.Run("rejects non base64 ciphertext", func(t *testing.T) {
		_, err := Decrypt(testKey, "!!!not-base64!!!")
		assert.Error(t, err)
	})
}
