package hashing_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-botlist-server/hashing"
	"github.com/stretchr/testify/require"
)

func TestHashIsSaltedAndVerifies(t *testing.T) {
	h := hashing.New(4)

	first, err := h.Hash("s")
	require.NoError(t, err)
	second, err := h.Hash("s")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, h.Verify("s", first))
	require.True(t, h.Verify("s", second))
	require.False(t, h.Verify("t", first))
}

func TestLongSecretsAreNotTruncated(t *testing.T) {
	h := hashing.New(4)
	prefix := strings.Repeat("x", 100)

	hashed, err := h.Hash(prefix + "A")
	require.NoError(t, err)

	require.True(t, h.Verify(prefix+"A", hashed))
	require.False(t, h.Verify(prefix+"B", hashed), "inputs differing after byte 72 must not collide")
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := hashing.New(4)
	require.False(t, h.Verify("s", ""))
	require.False(t, h.Verify("s", "not-a-bcrypt-hash"))
}

func TestDefaultCost(t *testing.T) {
	h := hashing.New(0)
	hashed, err := h.Hash("s")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hashed, "$2a$10$"))
}
