package benchmark

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostInfo describes the machine a run executes on.
type HostInfo struct {
	CPUModel     string
	CPUMhz       float64
	LogicalCores int
	MemTotal     uint64
}

// ReadHostInfo collects what gopsutil knows about the host. Fields it
// cannot read stay zero.
func ReadHostInfo() HostInfo {
	info := HostInfo{LogicalCores: runtime.NumCPU()}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
		info.CPUMhz = cpus[0].Mhz
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.LogicalCores = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemTotal = vm.Total
	}
	return info
}

func logHost() {
	h := ReadHostInfo()
	log.Info().
		Str("cpu_model", h.CPUModel).
		Float64("cpu_mhz", h.CPUMhz).
		Int("logical_cores", h.LogicalCores).
		Uint64("mem_total", h.MemTotal).
		Str("goos", runtime.GOOS).
		Str("goarch", runtime.GOARCH).
		Msg("Host")
}
