package google

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretboxCipher(t *testing.T) {
	c, err := NewSecretboxCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	first, err := c.Encrypt("ya29.token")
	require.NoError(t, err)
	second, err := c.Encrypt("ya29.token")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "nonces differ per call")
	assert.NotContains(t, first, "ya29")

	plain, err := c.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", plain)
}

func TestSecretboxCipher_RejectsTampering(t *testing.T) {
	c, err := NewSecretboxCipher(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	other, err := NewSecretboxCipher(bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = c.Decrypt("not base64!")
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = c.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewSecretboxCipher_KeyLength(t *testing.T) {
	_, err := NewSecretboxCipher([]byte("short"))
	assert.Error(t, err)
}
