package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialCipherRoundTrip(t *testing.T) {
	c, err := NewCredentialCipher("some-configured-secret")
	require.NoError(t, err)

	for _, plaintext := range []string{"hunter2", "", "päss wörd with spaces"} {
		enc, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, enc)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plaintext, dec)
	}
}

func TestCredentialCipherWrongKey(t *testing.T) {
	a, err := NewCredentialCipher("secret-a")
	require.NoError(t, err)
	b, err := NewCredentialCipher("secret-b")
	require.NoError(t, err)

	enc, err := a.Encrypt("hunter2")
	require.NoError(t, err)

	_, err = b.Decrypt(enc)
	assert.Error(t, err)
}

func TestCredentialCipherRejectsGarbage(t *testing.T) {
	c, err := NewCredentialCipher("some-configured-secret")
	require.NoError(t, err)

	_, err = c.Decrypt("AAAA")
	assert.Error(t, err)

	_, err = NewCredentialCipher("")
	assert.Error(t, err)
}
