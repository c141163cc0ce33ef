package password

import (
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
)

var fastParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher("pepper", fastParams)

	hash, err := h.Hash("Secret123")
	require.NoError(t, err)
	require.NotContains(t, hash, "Secret123")
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := h.Verify("Secret123", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_Salted(t *testing.T) {
	h := NewHasher("", fastParams)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	require.NotEqual(t, a, b)
}

func TestHasher_PepperMatters(t *testing.T) {
	hash, _ := NewHasher("one", fastParams).Hash("pwd")
	ok, err := NewHasher("two", fastParams).Verify("pwd", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_MalformedHash(t *testing.T) {
	_, err := NewHasher("", fastParams).Verify("pwd", "not-a-hash")
	require.Error(t, err)
}
