package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "minimal allowed length", password: "secret"},
		{name: "multibyte at byte limit", password: strings.Repeat("я", 36)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, Cost, cost)

			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestGetHash_TooLong(t *testing.T) {
	// 40 кириллических символов занимают 80 байт
	_, err := GetHash(strings.Repeat("я", 40))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("correct-horse")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		err := CompareHash(hash, "battery-staple")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("corrupted hash", func(t *testing.T) {
		err := CompareHash("not-a-bcrypt-hash", "correct-horse")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMismatch)
	})

	t.Run("same password hashes differ", func(t *testing.T) {
		other, err := GetHash("correct-horse")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})
}
