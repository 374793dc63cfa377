package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyspace(t *testing.T) {
	a := NewKeyspace(NewRand(11, 0), 4)
	b := NewKeyspace(NewRand(11, 0), 4)

	seen := map[string]bool{}
	for i := uint64(0); i < 1000; i++ {
		k := a.Key(i)
		require.Len(t, k, 32)
		require.Equal(t, k, b.Key(i))
		require.False(t, seen[string(k)], "duplicate key for index %d", i)
		seen[string(k)] = true
	}

	other := NewKeyspace(NewRand(12, 0), 4)
	assert.NotEqual(t, a.Key(0), other.Key(0))
	assert.Len(t, NewKeyspace(NewRand(1, 0), 0).prefixes, defaultPrefixGroups)
}
