//go:build unix

package benchmark

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

func readResourceUsage() (ResourceUsage, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return ResourceUsage{}, fmt.Errorf("getrusage: %w", err)
	}
	maxRSS := uint64(ru.Maxrss)
	if runtime.GOOS == "darwin" {
		// reported in bytes
		maxRSS /= 1024
	}
	return ResourceUsage{
		SysTimeMicros: uint64(ru.Stime.Sec)*1_000_000 + uint64(ru.Stime.Usec),
		UsrTimeMicros: uint64(ru.Utime.Sec)*1_000_000 + uint64(ru.Utime.Usec),
		MaxRSSKB:      maxRSS,
	}, nil
}
