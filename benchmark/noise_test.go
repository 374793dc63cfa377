package benchmark

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseGenerate(t *testing.T) {
	var stop atomic.Bool
	rng := NewRand(1, 0)

	n, done := Noise{}.Generate(rng, &stop)
	assert.True(t, done)
	assert.Zero(t, n)

	n, done = Noise{Max: 1000}.Generate(rng, &stop)
	assert.True(t, done)
	assert.Equal(t, uint64(1000), n)

	for i := 0; i < 100; i++ {
		n, done = Noise{Max: 50, Random: true}.Generate(rng, &stop)
		assert.True(t, done)
		assert.LessOrEqual(t, n, uint64(50))
	}
}

func TestNoiseObservesStop(t *testing.T) {
	var stop atomic.Bool
	stop.Store(true)

	n, done := Noise{Max: 1 << 40}.Generate(NewRand(1, 0), &stop)
	assert.False(t, done)
	assert.Zero(t, n)
}
