package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tclemos/csb-bench/benchmark"
)

const envPrefix = "CSB"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "csb-bench",
	Short: "Concurrent system benchmark harness",
	Long: `csb-bench drives a pluggable target from a pool of pinned workers for a
fixed duration and prints one delimiter-separated statistics line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		benchmark.SetupLog(viper.GetString("log-format"))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json) providing flag defaults")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: 'json' or 'console'")
	bindFlags(rootCmd.PersistentFlags())
}

// initConfig layers flags over CSB_* environment variables over the config
// file.
func initConfig() error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	log.Info().Str("file", viper.ConfigFileUsed()).Msg("Loaded config")
	return nil
}
