package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptionRoundTrip(t *testing.T) {
	svc, err := NewEncryptionService(testKey)
	require.NoError(t, err)

	plaintext := `{"host":"db.local","password":"s3cret"}`
	sealed, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "s3cret")

	got, err := svc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	// nonces differ per call
	sealed2, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, sealed2)
}

func TestEncryptionRejectsShortKey(t *testing.T) {
	_, err := NewEncryptionService("too-short")
	assert.Error(t, err)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	a, err := NewEncryptionService(testKey)
	require.NoError(t, err)
	b, err := NewEncryptionService("ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	sealed, err := a.Encrypt("secret")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	svc, err := NewEncryptionService(testKey)
	require.NoError(t, err)

	sealed, err := svc.Encrypt("secret")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-4] + "AAA="
	_, err = svc.Decrypt(tampered)
	assert.Error(t, err)

	_, err = svc.Decrypt("not base64!!!")
	assert.Error(t, err)
}
