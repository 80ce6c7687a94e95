package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCaseID(t *testing.T) {
	tests := []struct {
		name string
		max  string
		want string
	}{
		{"empty store", "", "BCN100000000001"},
		{"increments", "BCN100000000001", "BCN100000000002"},
		{"carries", "BCN100000000009", "BCN100000000010"},
		{"malformed max restarts", "BCN_TEST", "BCN100000000001"},
		{"below starting value clamps", "BCN000000000005", "BCN100000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextCaseID(tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, ValidCaseID(got))
		})
	}
}

func TestValidCaseID(t *testing.T) {
	assert.True(t, ValidCaseID("BCN100000000001"))
	assert.False(t, ValidCaseID("BCN1000000001"))    // too short
	assert.False(t, ValidCaseID("XYZ100000000001"))  // wrong prefix
	assert.False(t, ValidCaseID("BCN10000000000a"))  // non-digit
	assert.False(t, ValidCaseID(" BCN100000000001")) // whitespace
}

func TestNewSecretKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := NewSecretKey()
		require.NoError(t, err)
		assert.True(t, ValidSecretKey(key), "malformed key %q", key)
		assert.Len(t, key, 23)
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}

func TestNewAccessToken(t *testing.T) {
	// Identical seeds must still yield distinct tokens: server entropy
	// dominates the caller-supplied seed.
	a, err := NewAccessToken("same-seed")
	require.NoError(t, err)
	b, err := NewAccessToken("same-seed")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

func TestHashToken(t *testing.T) {
	h := HashToken("some-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("some-token"))
	assert.NotEqual(t, h, HashToken("other-token"))
	assert.True(t, TokenHashEqual(h, HashToken("some-token")))
	assert.False(t, TokenHashEqual(h, HashToken("other-token")))
}
