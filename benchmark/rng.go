package benchmark

import (
	"math/rand/v2"
	"time"
)

const (
	printableMin = '!'
	printableMax = '~'
)

// Rand is a per-worker random source. It is not safe for concurrent use;
// every worker owns its own instance, which keeps draws lock-free.
type Rand struct {
	r *rand.Rand
}

// NewRand returns a source seeded from seed and stream. A zero seed is
// replaced by the current time so unseeded runs differ.
func NewRand(seed uint64, stream uint64) *Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Rand{r: rand.New(rand.NewPCG(seed, stream))}
}

// Between returns a uniform integer in [lo, hi].
func (r *Rand) Between(lo, hi uint64) uint64 {
	if hi < lo {
		panic("benchmark: Between called with hi < lo")
	}
	span := hi - lo
	if span == ^uint64(0) {
		return r.r.Uint64()
	}
	return lo + r.r.Uint64N(span+1)
}

// Pick draws a uniform value in [1,100] and returns the first index whose
// cumulative weight reaches it. weights must sum to 100.
func (r *Rand) Pick(weights []uint32) int {
	return pickWeighted(weights, uint32(r.Between(1, 100)))
}

func pickWeighted(weights []uint32, draw uint32) int {
	var cumulative uint32
	for i, w := range weights {
		cumulative += w
		if draw <= cumulative {
			return i
		}
	}
	panic("benchmark: operation weights do not sum to 100")
}

// Fill overwrites buf with random bytes.
func (r *Rand) Fill(buf []byte) {
	for i := 0; i < len(buf); {
		v := r.r.Uint64()
		for j := 0; j < 8 && i < len(buf); j++ {
			buf[i] = byte(v)
			v >>= 8
			i++
		}
	}
}

// PrintableString returns n random characters in the range '!'..'~'.
func (r *Rand) PrintableString(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(r.Between(printableMin, printableMax))
	}
	return string(buf)
}
