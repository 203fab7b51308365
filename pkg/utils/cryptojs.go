package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// EncryptedPayloadPrefix is how an OpenSSL "Salted__" header looks once base64
// encoded. Clients send passwords in that form when they obfuscate them.
const EncryptedPayloadPrefix = "U2F"

var (
	saltedHeader = []byte("Salted__")

	ErrMalformedPayload = errors.New("malformed encrypted payload")
)

// PayloadDecrypter reverses the AES passphrase obfuscation the mobile client
// applies to passwords. It is not a confidentiality boundary; TLS is.
type PayloadDecrypter struct {
	secret string
}

func NewPayloadDecrypter(secret string) *PayloadDecrypter {
	return &PayloadDecrypter{secret: secret}
}

// Decrypt returns payload unchanged when it carries no encryption marker,
// when no secret is configured, or when it does not decrypt. A plaintext
// password may happen to start with the marker.
func (d *PayloadDecrypter) Decrypt(payload string) string {
	if d == nil || d.secret == "" || !strings.HasPrefix(payload, EncryptedPayloadPrefix) {
		return payload
	}

	plain, err := d.decrypt(payload)
	if err != nil {
		zap.L().Debug("Treating undecryptable payload as plaintext", zap.Error(err))
		return payload
	}
	return plain
}

func (d *PayloadDecrypter) decrypt(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(raw) < 16+aes.BlockSize || !bytes.Equal(raw[:8], saltedHeader) {
		return "", ErrMalformedPayload
	}

	salt, ciphertext := raw[8:16], raw[16:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrMalformedPayload
	}

	key, iv := deriveKeyIV([]byte(d.secret), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// deriveKeyIV is OpenSSL's EVP_BytesToKey with MD5 and a single iteration.
func deriveKeyIV(passphrase, salt []byte, keyLen, ivLen int) ([]byte, []byte) {
	var (
		derived []byte
		prev    []byte
	)
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrMalformedPayload
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrMalformedPayload
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrMalformedPayload
		}
	}
	return data[:len(data)-n], nil
}
