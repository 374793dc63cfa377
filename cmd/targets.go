package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tclemos/csb-bench/benchmark"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List registered targets and their operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range benchmark.TargetNames() {
			t, err := benchmark.NewTarget(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-18s %s\n", name, t.Name(), strings.Join(benchmark.OperationNames(t), ","))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
