package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encryptPayload mirrors what the mobile client sends: OpenSSL-compatible
// AES-256-CBC with a passphrase.
func encryptPayload(t *testing.T, passphrase, plain string, salt []byte) string {
	t.Helper()

	key, iv := deriveKeyIV([]byte(passphrase), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	pad := aes.BlockSize - len(plain)%aes.BlockSize
	data := []byte(plain)
	for i := 0; i < pad; i++ {
		data = append(data, byte(pad))
	}

	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)

	raw := append(append(append([]byte{}, saltedHeader...), salt...), out...)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestPayloadDecrypter_Decrypt(t *testing.T) {
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	d := NewPayloadDecrypter("movapp-secret")

	payload := encryptPayload(t, "movapp-secret", "secreto123", salt)
	require.True(t, len(payload) > 3 && payload[:3] == EncryptedPayloadPrefix)

	assert.Equal(t, "secreto123", d.Decrypt(payload))
}

func TestPayloadDecrypter_PassThrough(t *testing.T) {
	assert.Equal(t, "secreto123", NewPayloadDecrypter("movapp-secret").Decrypt("secreto123"))

	salt := []byte{8, 7, 6, 5, 4, 3, 2, 1}
	payload := encryptPayload(t, "movapp-secret", "secreto123", salt)
	assert.Equal(t, payload, NewPayloadDecrypter("").Decrypt(payload))
}

func TestPayloadDecrypter_MalformedFallsBackToPlaintext(t *testing.T) {
	d := NewPayloadDecrypter("movapp-secret")

	tests := []struct {
		name    string
		payload string
	}{
		{"plaintext with marker", "U2Fsecret99"},
		{"not base64", "U2F***"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("Salted__1234"))},
		{"ragged ciphertext", base64.StdEncoding.EncodeToString(append([]byte("Salted__12345678"), make([]byte, 20)...))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.decrypt(tt.payload)
			assert.ErrorIs(t, err, ErrMalformedPayload)
			assert.Equal(t, tt.payload, d.Decrypt(tt.payload))
		})
	}

	t.Run("wrong passphrase", func(t *testing.T) {
		payload := encryptPayload(t, "other-secret", "secreto123", []byte("saltsalt"))
		assert.NotEqual(t, "secreto123", d.Decrypt(payload))
	})
}
