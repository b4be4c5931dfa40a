package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, ComparePassword(hash, "pw123"))
	assert.Error(t, ComparePassword(hash, "pw124"))
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, err := HashPassword("samepassword", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("samepassword", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, ComparePassword(first, "samepassword"))
	assert.NoError(t, ComparePassword(second, "samepassword"))
}

func TestComparePasswordMalformedHash(t *testing.T) {
	assert.Error(t, ComparePassword("not-a-bcrypt-hash", "pw123"))
	assert.Error(t, ComparePassword("", "pw123"))
}
