package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_AccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", 30*time.Minute, 0).WithClock(func() time.Time { return now })

	userID := uuid.New()
	token, expiresAt, err := m.IssueAccessToken(userID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), expiresAt)

	got, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenManager_VerifyRejects(t *testing.T) {
	now := time.Now()
	m := NewTokenManager("secret", time.Minute, 0).WithClock(func() time.Time { return now })
	token, _, err := m.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", time.Minute, 0).WithClock(func() time.Time { return now.Add(2 * time.Minute) })
		_, err := later.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", time.Minute, 0).WithClock(func() time.Time { return now })
		_, err := other.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.VerifyAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := AccessClaims{
			UserID:           uuid.NewString(),
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.VerifyAccessToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := AccessClaims{UserID: uuid.NewString()}
		noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.VerifyAccessToken(noExp)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bad subject", func(t *testing.T) {
		claims := AccessClaims{
			UserID:           "42",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		}
		bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.VerifyAccessToken(bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenManager_IssueRefreshToken(t *testing.T) {
	now := time.Now()
	m := NewTokenManager("secret", 0, 24*time.Hour).WithClock(func() time.Time { return now })

	first, err := m.IssueRefreshToken()
	require.NoError(t, err)
	second, err := m.IssueRefreshToken()
	require.NoError(t, err)

	assert.Len(t, first.Secret, refreshTokenBytes*2)
	assert.NotEqual(t, first.Secret, second.Secret)
	assert.Equal(t, HashRefreshToken(first.Secret), first.Hash)
	assert.NotEqual(t, first.Secret, first.Hash)
	assert.Equal(t, now.Add(24*time.Hour), first.ExpiresAt)
}
