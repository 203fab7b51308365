package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// ResetCodeAlphabet leaves out I, O, 0 and 1.
const ResetCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const DefaultResetCodeLength = 5

// GenerateResetCode returns a short human-friendly code.
func GenerateResetCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultResetCodeLength
	}

	max := big.NewInt(int64(len(ResetCodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate reset code: %w", err)
		}
		code[i] = ResetCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// RandomHex returns n random bytes, hex encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
