package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := New(bcrypt.MinCost)

	hash, err := h.Hash("abcdef")
	require.NoError(t, err)

	assert.True(t, h.Verify("abcdef", hash))
	assert.False(t, h.Verify("abcdeg", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := New(bcrypt.MinCost)

	tests := []struct {
		name string
		hash []byte
	}{
		{name: "nil", hash: nil},
		{name: "empty", hash: []byte{}},
		{name: "garbage", hash: []byte("not-a-bcrypt-hash")},
		{name: "truncated", hash: []byte("$2a$10$abc")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, h.Verify("abcdef", tc.hash))
		})
	}
}

func TestNew_Cost(t *testing.T) {
	assert.Equal(t, DefaultCost, New(0).cost)
	assert.Equal(t, DefaultCost, New(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, New(bcrypt.MinCost).cost)

	hash, err := New(DefaultCost).Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}
