package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tclemos/csb-bench/benchmark"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Drive a kvserver target with SET/GET round trips",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := benchmark.ClientConfig{
			Addr:  viper.GetString("addr"),
			Count: viper.GetUint64("count"),
		}
		if err := benchmark.RunClient(ctx, cfg, cmd.OutOrStdout()); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Addr).Msg("Client failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().String("addr", "127.0.0.1:6379", "kvserver address")
	clientCmd.Flags().Uint64("count", 0, "Round trips to perform (0 runs until an error or interrupt)")

	bindFlags(clientCmd.Flags())
}
