//go:build !amd64 && !arm64

package benchmark

import "time"

var cycleEpoch = time.Now()

// Without a readable cycle counter one tick is one monotonic nanosecond.
func readCycleCounter() uint64 {
	return uint64(time.Since(cycleEpoch))
}
