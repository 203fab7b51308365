package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateResetCode(t *testing.T) {
	code, err := GenerateResetCode(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultResetCodeLength)

	for i := 0; i < 50; i++ {
		code, err := GenerateResetCode(8)
		require.NoError(t, err)
		require.Len(t, code, 8)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(ResetCodeAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(16)
	require.NoError(t, err)
	b, err := RandomHex(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("secreto123")
	require.NoError(t, err)
	assert.True(t, h.Check(hash, "secreto123"))
	assert.False(t, h.Check(hash, "secreto124"))
	assert.False(t, h.Check("not-a-hash", "secreto123"))

	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("abc"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword("ñandú"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("ñandús"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ana@example.com", SanitizeEmail("  Ana@Example.COM<b></b>\x00 "))
	assert.Equal(t, "+52 (55) 1234-5678", SanitizePhone(" +52 (55) 1234-5678<script>x</script>"))
	assert.Equal(t, "&lt;b&gt;Ana&lt;/b&gt;", SanitizeString("  <b>Ana</b> "))
	assert.Equal(t, "O'Brien & Hijos", SanitizeText("  <b>O'Brien</b> & Hijos\x07 "))
	assert.Equal(t, "María", SanitizeText("María"))
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Phone    string `validate:"phone"`
		Currency string `validate:"currency"`
	}

	assert.NoError(t, ValidateStruct(payload{Phone: "+52 55 1234 5678", Currency: "MXN"}))
	assert.Error(t, ValidateStruct(payload{Phone: "abc", Currency: "MXN"}))
	assert.Error(t, ValidateStruct(payload{Phone: "5512345678", Currency: "mxn"}))
}
