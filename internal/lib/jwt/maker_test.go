package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	maker := NewJWTMaker("test_secret_key_1234567890", 15*time.Minute, WithClock(clock.Now))

	userIDs := []string{
		"7f1c1d5e-8d0a-4f59-9c3b-2f6f0f0f7a11",
		"00000000-0000-0000-0000-000000000001",
	}

	for _, userID := range userIDs {
		t.Run(userID, func(t *testing.T) {
			token, expiresAt, err := maker.GenerateToken(userID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, clock.now.Add(15*time.Minute), expiresAt)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.NotEmpty(t, claims.ID)
			assert.True(t, claims.IssuedAt.Time.Equal(clock.now))
			assert.True(t, claims.ExpiresAt.Time.Equal(expiresAt))
		})
	}
}

func TestJWTMaker_GenerateToken_UniquePerCall(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	maker := NewJWTMaker("secret", time.Hour, WithClock(clock.Now))

	first, _, err := maker.GenerateToken("user-1")
	require.NoError(t, err)
	second, _, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTMaker_GenerateToken_EmptyUserID(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)
	_, _, err := maker.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTMaker_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	maker := NewJWTMaker("test_secret", 15*time.Minute, WithClock(clock.Now))

	token, _, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	clock.Advance(14*time.Minute + 59*time.Second)
	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	claims, err := maker.ParseToken(token)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, _, err := maker.GenerateToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "wrong secret key", token: tokenWithSecret(t, "wrong_secret_key")},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: unsignedToken(t)},
		{name: "missing user id", token: tokenWithoutUserID(t, secretKey)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	access := NewJWTMaker("access_secret", 15*time.Minute)
	refresh := NewJWTMaker("refresh_secret", 7*24*time.Hour)

	token, _, err := refresh.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = access.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalid)

	claims, err := refresh.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, 7*24*time.Hour, refresh.TTL())
}

func tokenWithSecret(t *testing.T, secret string) string {
	t.Helper()
	token, _, err := NewJWTMaker(secret, 15*time.Minute).GenerateToken("user-1")
	require.NoError(t, err)
	return token
}

func unsignedToken(t *testing.T) string {
	t.Helper()
	claims := CustomClaims{
		UserID: "user-1",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func tokenWithoutUserID(t *testing.T, secret string) string {
	t.Helper()
	claims := CustomClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}
