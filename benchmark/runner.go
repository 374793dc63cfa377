package benchmark

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config defines the benchmark parameters passed from CLI
type Config struct {
	Target   string         // registered target name
	Workload WorkloadConfig // parsed -t/-n/-d/-s/-op parameters

	Delimiter         byte          // report field separator
	Bind              bool          // pin each worker to a core
	NoiseRandom       bool          // draw noise uniformly from [0, MaxNoise]
	CalibrationWindow time.Duration // sleep used to calibrate ticks per ms
	Percentiles       bool          // report HDR latency percentiles
	ProgressInterval  time.Duration // progress log interval, 0 disables
	Seed              uint64        // RNG seed, 0 seeds from the clock

	KVServer KVServerConfig
	Pebble   PebbleConfig
}

// RunBenchmark orchestrates the full benchmark lifecycle and writes the
// report line to out.
func RunBenchmark(ctx context.Context, cfg Config, out io.Writer) (Summary, error) {
	target, err := NewTarget(cfg.Target)
	if err != nil {
		return Summary{}, err
	}
	return runTarget(ctx, cfg, target, out)
}

func runTarget(ctx context.Context, cfg Config, target Target, out io.Writer) (Summary, error) {
	if n := target.OperationCount(); len(cfg.Workload.OpDist) != n {
		return Summary{}, fmt.Errorf("%w: %d weights for %d operations of %s", ErrParamMismatch, len(cfg.Workload.OpDist), n, target.Name())
	}
	if err := cfg.Workload.Validate(); err != nil {
		return Summary{}, err
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = DefaultDelimiter
	}

	initialLog(cfg, target)
	logHost()

	window := cfg.CalibrationWindow
	if window <= 0 {
		window = DefaultCalibrationWindow
	}
	ticksPerMs := CalibrateTicksPerMs(window)
	log.Info().Uint64("ticks_per_ms", ticksPerMs).Dur("window", window).Msg("Calibrated cycle counter")

	handle, err := target.Init(TargetConfig{
		Workload: cfg.Workload,
		Seed:     cfg.Seed,
		KVServer: cfg.KVServer,
		Pebble:   cfg.Pebble,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to init target %s: %w", target.Name(), err)
	}

	rs, runErr := runWorkers(ctx, cfg, handle, target.OperationCount())
	rs.TicksPerMs = ticksPerMs
	extra := handle.ExtraInfo()

	if err := handle.Destroy(); err != nil {
		return Summary{}, fmt.Errorf("failed to destroy target %s: %w", target.Name(), err)
	}
	if runErr != nil {
		return Summary{}, runErr
	}

	summary := rs.Summarize(OperationNames(target))
	summary.Target = target.Name()
	summary.ExtraInfo = extra
	summary.Params = cfg.Workload.Fields()
	summary.Usage, err = ReadResourceUsage()
	if err != nil {
		log.Warn().Err(err).Msg("Could not read resource usage")
	}

	if err := WriteReport(out, summary, cfg.Delimiter); err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().
		Str("target", summary.Target).
		Uint64("count", summary.Universal.Count).
		Float64("succ_percent", summary.Universal.SuccPercent).
		Float64("throughput_min", summary.ThroughputMin).
		Float64("throughput_max", summary.ThroughputMax).
		Uint64("duration_max_ms", summary.DurationMaxMs).
		Msg("Benchmark complete")
	return summary, nil
}

// runWorkers launches the worker pool against handle and returns the
// collected stats once every worker has joined.
func runWorkers(ctx context.Context, cfg Config, handle Handle, numOps int) (*RunStat, error) {
	threads := int(cfg.Workload.Threads)
	rs := NewRunStat(threads, numOps, cfg.Percentiles)
	launcher := NewLauncher(threads, cfg.Bind)

	if threads+1 > runtime.GOMAXPROCS(0) {
		log.Warn().
			Int("threads", threads).
			Int("gomaxprocs", runtime.GOMAXPROCS(0)).
			Msg("More workers than GOMAXPROCS, workers will time-share")
	}

	noise := Noise{Max: uint64(cfg.Workload.MaxNoise), Random: cfg.NoiseRandom}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	chDone := make(chan struct{})
	if cfg.ProgressInterval > 0 {
		go monitorProgress(rs, cfg.ProgressInterval, chDone)
	}

	log.Info().Int("workers", threads).Msg("Beginning dispatch loop")
	started := Now()
	stopped, err := launcher.Launch(ctx, time.Duration(cfg.Workload.Duration)*time.Second, func(tid int) error {
		w := &worker{
			tid:     tid,
			handle:  handle,
			weights: cfg.Workload.OpDist,
			noise:   noise,
			rng:     NewRand(seed, uint64(tid)),
			stat:    rs.Threads[tid],
			stop:    launcher.StopFlag(),
		}
		return w.run()
	})
	close(chDone)

	rs.StartWall, rs.StartClk = started.Wall, started.Clk
	rs.StopWall, rs.StopClk = stopped.Wall, stopped.Clk
	return rs, err
}

// print progress every interval while workers are running
func monitorProgress(rs *RunStat, interval time.Duration, chDone <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-chDone:
			return
		case <-ticker.C:
			log.Info().Uint64("dispatched", rs.Progress()).Msg("Dispatches in progress")
		}
	}
}

func initialLog(cfg Config, target Target) {
	log.Info().
		Str("target", target.Name()).
		Strs("operations", OperationNames(target)).
		Uint32("threads", cfg.Workload.Threads).
		Uint32("max_noise", cfg.Workload.MaxNoise).
		Bool("noise_random", cfg.NoiseRandom).
		Uint32("duration_s", cfg.Workload.Duration).
		Uint32("init_size", cfg.Workload.InitSize).
		Uints32("op_dist", cfg.Workload.OpDist).
		Bool("bind", cfg.Bind).
		Bool("percentiles", cfg.Percentiles).
		Uint64("seed", cfg.Seed).
		Msg("Starting benchmark")
}

// SetupLog points the global logger at stderr, as JSON or console output.
// stdout is reserved for the report line.
func SetupLog(format string) {
	if strings.ToLower(format) == "json" {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
