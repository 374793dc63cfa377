package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Timestamp pairs a wall-clock reading with a cycle counter reading.
type Timestamp struct {
	Wall time.Time
	Clk  uint64
}

// Now samples both clocks.
func Now() Timestamp {
	return Timestamp{Wall: time.Now(), Clk: ReadCycleCounter()}
}

// Launcher runs a fixed pool of workers, each locked to its own OS thread and
// optionally pinned to a core. Workers are released together by a shared
// start flag and asked to finish by a shared stop flag.
//
// Both flags are busy-waited on rather than signalled through channels or
// condition variables: a spinning worker starts within nanoseconds of the
// flag flip, while a blocked one waits for a scheduler wakeup, which skews
// the start of the measured interval. The cost is one busy core per worker
// for the short window between thread creation and the start signal.
//
// A Launcher is single use.
type Launcher struct {
	threads int
	bind    bool

	start atomic.Bool
	stop  atomic.Bool
}

// NewLauncher returns a launcher for threads workers.
func NewLauncher(threads int, bind bool) *Launcher {
	return &Launcher{threads: threads, bind: bind}
}

// StopFlag is the flag raised when workers should leave their loop.
func (l *Launcher) StopFlag() *atomic.Bool { return &l.stop }

// Launch creates all workers, gives the start signal, waits for d (or until
// ctx is done, or a worker fails), raises the stop flag and joins every
// worker. It returns the instant the stop flag was raised and the first
// worker error.
func (l *Launcher) Launch(ctx context.Context, d time.Duration, fn func(tid int) error) (Timestamp, error) {
	g, gctx := errgroup.WithContext(ctx)

	for tid := 0; tid < l.threads; tid++ {
		g.Go(func() error {
			// Exiting while still locked retires the thread, so a pinned
			// thread never goes back to the runtime pool.
			runtime.LockOSThread()
			if l.bind {
				if err := pinToCore(tid); err != nil {
					return fmt.Errorf("pin thread %d: %w", tid, err)
				}
			} else {
				defer runtime.UnlockOSThread()
			}

			for !l.start.Load() {
			}

			return fn(tid)
		})
	}
	l.start.Store(true)

	timer := time.NewTimer(d)
	select {
	case <-timer.C:
	case <-gctx.Done():
		timer.Stop()
	}

	l.stop.Store(true)
	stopped := Now()

	return stopped, g.Wait()
}
