package benchmark

import (
	"fmt"
	"sync/atomic"
	"time"
)

// progressEvery is how often (in dispatches, power of two) a worker
// publishes its dispatch count to the progress monitor.
const progressEvery = 1 << 10

// worker is the dispatch loop of one thread.
type worker struct {
	tid     int
	handle  Handle
	weights []uint32
	noise   Noise
	rng     *Rand
	stat    *ThreadStat
	stop    *atomic.Bool
}

func (w *worker) run() error {
	tc, err := w.handle.RegisterThread(w.tid)
	if err != nil {
		return fmt.Errorf("register thread %d: %w", w.tid, err)
	}

	w.stat.StartWall, w.stat.StartClk = time.Now(), ReadCycleCounter()
	n := w.loop(tc)
	w.stat.EndWall, w.stat.EndClk = time.Now(), ReadCycleCounter()
	w.stat.progress.Store(n)

	w.handle.DeregisterThread(tc, w.tid)
	return nil
}

func (w *worker) loop(tc ThreadContext) uint64 {
	var n uint64
	for !w.stop.Load() {
		op := w.rng.Pick(w.weights)

		if _, done := w.noise.Generate(w.rng, w.stop); !done {
			w.stat.Record(op, OpResult{}, 0, true)
			break
		}

		start := ReadCycleCounter()
		res := w.handle.Dispatch(tc, op)
		end := ReadCycleCounter()

		var d uint64
		if end > start {
			d = end - start
		}
		w.stat.Record(op, res, d, false)

		n++
		if n%progressEvery == 0 {
			w.stat.progress.Store(n)
		}
	}
	return n
}
