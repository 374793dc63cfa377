package benchmark

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	keyPrefixLen = 8
	keySuffixLen = 16

	defaultPrefixGroups = 32
)

// Keyspace derives deterministic 32-byte hashed keys from an index. Keys are
// spread over a fixed number of shared 8-byte prefix groups before hashing,
// so index i always maps to the same key for a given seed.
type Keyspace struct {
	prefixes [][]byte
	fixed    [][]byte
}

// NewFixedKeyspace serves keys from a preloaded list, wrapping around.
func NewFixedKeyspace(keys [][]byte) *Keyspace {
	return &Keyspace{fixed: keys}
}

// NewKeyspace draws groups random prefixes from rng.
func NewKeyspace(rng *Rand, groups int) *Keyspace {
	if groups <= 0 {
		groups = defaultPrefixGroups
	}
	ks := &Keyspace{prefixes: make([][]byte, groups)}
	for i := range ks.prefixes {
		raw := make([]byte, keyPrefixLen)
		rng.Fill(raw)
		ks.prefixes[i] = raw
	}
	return ks
}

// Key returns the key of index i. Derived keys are freshly allocated, fixed
// keys are shared and must not be modified.
func (ks *Keyspace) Key(i uint64) []byte {
	if len(ks.fixed) > 0 {
		return ks.fixed[i%uint64(len(ks.fixed))]
	}
	var raw [keyPrefixLen + keySuffixLen]byte
	copy(raw[:], ks.prefixes[i%uint64(len(ks.prefixes))])
	binary.LittleEndian.PutUint64(raw[keyPrefixLen:], i)
	binary.LittleEndian.PutUint64(raw[keyPrefixLen+8:], ^i)
	return crypto.Keccak256(raw[:])
}
