// Package cli implements the gust command line.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "gust",
	Short:   "A programmable load-generation engine",
	Version: version,
	Long: `Gust executes an operation repeatedly at a controlled rate - batches of
configurable concurrency on a fixed interval - and reports counts,
throughput, and latency percentiles.

The CLI runs plan files against a built-in synthetic operation, which makes
it useful for exploring timing plans and for exercising the engine itself.
Real workloads use gust as a library.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
}
