//go:build linux

package benchmark

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// maxCPUs bounds the scan of the affinity mask (CPU_SETSIZE).
const maxCPUs = 1024

// allowedCPUs snapshots the affinity mask on first use. Threads spawned by
// a pinned thread inherit its single-core mask, so later reads could not be
// trusted.
var allowedCPUs = sync.OnceValues(func() (unix.CPUSet, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return set, fmt.Errorf("sched_getaffinity: %w", err)
	}
	return set, nil
})

// pinToCore binds the calling OS thread to one of the cores the process may
// run on, chosen as tid modulo the number of such cores.
func pinToCore(tid int) error {
	allowed, err := allowedCPUs()
	if err != nil {
		return err
	}
	n := allowed.Count()
	if n == 0 {
		return errors.New("empty affinity mask")
	}

	want := tid % n
	for cpu, seen := 0, 0; cpu < maxCPUs; cpu++ {
		if !allowed.IsSet(cpu) {
			continue
		}
		if seen == want {
			var set unix.CPUSet
			set.Set(cpu)
			if err := unix.SchedSetaffinity(0, &set); err != nil {
				return fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
			}
			return nil
		}
		seen++
	}
	return fmt.Errorf("cpu index %d not found in affinity mask", want)
}
