package benchmark

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCycleCounterMonotonic(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prev := ReadCycleCounter()
	for i := 0; i < 10_000; i++ {
		cur := ReadCycleCounter()
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestCalibrateTicksPerMs(t *testing.T) {
	assert.Positive(t, CalibrateTicksPerMs(20*time.Millisecond))
	assert.Positive(t, CalibrateTicksPerMs(time.Microsecond))
}
