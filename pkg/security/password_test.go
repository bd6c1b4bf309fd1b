package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("pass123")
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))

	assert.NoError(t, h.Compare(hash, "pass123"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)

	_, err = h.Hash("")
	assert.Error(t, err)
}

func TestCompareLegacyPlaintext(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.NoError(t, h.Compare("pass123", "pass123"))
	assert.ErrorIs(t, h.Compare("pass123", "pass124"), ErrPasswordMismatch)
	assert.ErrorIs(t, h.Compare("", ""), ErrPasswordMismatch)
}
