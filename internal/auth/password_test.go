package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	hash, salt, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEmpty(t, salt)

	assert.True(t, VerifyPassword("correct horse battery staple", hash, salt))
	assert.False(t, VerifyPassword("wrong password", hash, salt))
}

func TestHashPasswordUsesDistinctSalts(t *testing.T) {
	_, salt1, err := HashPassword("same password")
	require.NoError(t, err)
	_, salt2, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
}

func TestVerifyPasswordRejectsTamperedHash(t *testing.T) {
	hash, salt, err := HashPassword("another password")
	require.NoError(t, err)

	tampered := append([]byte(nil), hash...)
	tampered[0] ^= 0xFF

	assert.False(t, VerifyPassword("another password", tampered, salt))
}
