package benchmark

import (
	"time"
)

// DefaultCalibrationWindow is how long CalibrateTicksPerMs sleeps between the
// two counter samples. A window much larger than one millisecond averages
// out the sleep overshoot of the scheduler.
const DefaultCalibrationWindow = time.Second

// ReadCycleCounter returns the current value of the architecture cycle
// counter (TSC on amd64, CNTVCT_EL0 on arm64, monotonic nanoseconds
// elsewhere). The read is an out-of-line assembly call, so the compiler
// cannot move memory accesses across it.
func ReadCycleCounter() uint64 {
	return readCycleCounter()
}

// CalibrateTicksPerMs samples the cycle counter, sleeps for window and
// samples again. It returns the elapsed ticks divided by the window length
// in milliseconds. Windows shorter than a millisecond are rounded up to one.
func CalibrateTicksPerMs(window time.Duration) uint64 {
	ms := uint64(window / time.Millisecond)
	if ms == 0 {
		ms = 1
		window = time.Millisecond
	}

	before := ReadCycleCounter()
	time.Sleep(window)
	after := ReadCycleCounter()

	return (after - before) / ms
}
