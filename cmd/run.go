package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tclemos/csb-bench/benchmark"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] -- -t=<threads> -n=<max noise> -d=<seconds> -s=<init size> -op0=<pct> [-op1=<pct> ...]",
	Short: "Run a benchmark against one target",
	Example: `  csb-bench run --target empty -- -t=4 -n=0 -d=5 -s=0 -op0=100
  csb-bench run --target pebble -- -t=2 -n=100 -d=10 -s=100000 -op0=70 -op1=20 -op2=10`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadRunConfig(args)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid benchmark parameters")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := benchmark.RunBenchmark(ctx, cfg, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Benchmark failed")
		}
	},
}

func loadRunConfig(args []string) (benchmark.Config, error) {
	target, err := benchmark.NewTarget(viper.GetString("target"))
	if err != nil {
		return benchmark.Config{}, err
	}
	wl, err := benchmark.ParseParams(args, target.OperationCount())
	if err != nil {
		return benchmark.Config{}, err
	}
	delim := viper.GetString("delimiter")
	if len(delim) != 1 {
		return benchmark.Config{}, fmt.Errorf("delimiter must be a single byte, got %q", delim)
	}

	return benchmark.Config{
		Target:            viper.GetString("target"),
		Workload:          wl,
		Delimiter:         delim[0],
		Bind:              viper.GetBool("bind"),
		NoiseRandom:       viper.GetBool("noise-random"),
		CalibrationWindow: viper.GetDuration("calibration-window"),
		Percentiles:       viper.GetBool("percentiles"),
		ProgressInterval:  viper.GetDuration("progress-interval"),
		Seed:              viper.GetUint64("seed"),
		KVServer: benchmark.KVServerConfig{
			Host: viper.GetString("kv-host"),
		},
		Pebble: benchmark.PebbleConfig{
			Dir:            viper.GetString("pebble-dir"),
			ValueSize:      viper.GetInt("pebble-value-size"),
			BlockCacheSize: viper.GetInt64("pebble-cache-size"),
			KeysFile:       viper.GetString("pebble-keys-file"),
		},
	}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("target", benchmark.TargetEmpty, "Target to benchmark (see 'targets')")
	runCmd.Flags().String("delimiter", string(benchmark.DefaultDelimiter), "Report field delimiter")
	runCmd.Flags().Bool("bind", true, "Pin each worker thread to its own core")
	runCmd.Flags().Bool("noise-random", false, "Draw noise uniformly from [0, max noise] instead of a fixed max noise")
	runCmd.Flags().Duration("calibration-window", benchmark.DefaultCalibrationWindow, "Sleep used to calibrate cycle counter ticks per ms")
	runCmd.Flags().Bool("percentiles", false, "Report p50/p90/p99/p999 latency per operation")
	runCmd.Flags().Duration("progress-interval", 0, "Log dispatch progress at this interval (0 disables)")
	runCmd.Flags().Uint64("seed", 0, "Seed for worker random sources (0 seeds from the clock)")

	// Target-specific flags
	runCmd.Flags().String("kv-host", "127.0.0.1", "kvserver: listen host, the port is the init size")
	runCmd.Flags().String("pebble-dir", "", "pebble: store directory (empty keeps the store in memory)")
	runCmd.Flags().Int("pebble-value-size", 32, "pebble: size of each value in bytes")
	runCmd.Flags().Int64("pebble-cache-size", 8<<20, "pebble: block cache size in bytes (negative for disabled)")
	runCmd.Flags().String("pebble-keys-file", "", "pebble: binary key file ([uvarint length][key]...) used instead of derived keys")

	bindFlags(runCmd.Flags())
}
