package benchmark

import "sync/atomic"

// Noise injects busy-loop iterations before an operation to simulate
// interleaved background work.
type Noise struct {
	Max    uint64 // upper bound of iterations, 0 disables noise
	Random bool   // draw the count uniformly from [0, Max] instead of using Max
}

// Generate spins for the configured number of iterations, checking stop on
// every iteration. It returns the number of iterations performed and false
// when stop was raised before the spin completed.
func (n Noise) Generate(rng *Rand, stop *atomic.Bool) (uint64, bool) {
	if n.Max == 0 {
		return 0, true
	}
	count := n.Max
	if n.Random {
		count = rng.Between(0, n.Max)
	}

	var i uint64
	for i = 0; i < count; i++ {
		if stop.Load() {
			return i, false
		}
	}
	return i, true
}

// Spin runs count no-op iterations. The returned accumulator keeps the loop
// from being optimized away; callers store it somewhere they own.
func Spin(count uint64) uint64 {
	var acc uint64
	for i := uint64(0); i < count; i++ {
		acc += i ^ acc
	}
	return acc
}
