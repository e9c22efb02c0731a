package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gustlabs/gust"
	"github.com/gustlabs/gust/config"
	"github.com/gustlabs/gust/internal/output"
)

var (
	runJSON    bool
	runNoColor bool
	runVerbose bool
)

var runCmd = &cobra.Command{
	Use:   "run <plan.yaml>",
	Short: "Run a plan file against the built-in synthetic operation",
	Long: `Run loads a plan file, validates it, executes it against the built-in
synthetic operation (a jittered sleep with a configurable failure rate), and
prints the aggregated result.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "disable colored output")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "enable debug logging")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if runVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	file, err := config.Load(args[0])
	if err != nil {
		return err
	}
	settings, err := file.Settings()
	if err != nil {
		return err
	}
	workers, err := file.WorkerConfig()
	if err != nil {
		return err
	}
	op, err := newSyntheticOperation(file)
	if err != nil {
		return err
	}

	plan := gust.Plan{
		Name:      file.Name,
		Settings:  settings,
		Operation: op,
	}

	result, err := gust.RunWithConfig(cmd.Context(), plan, workers)
	if err != nil {
		return err
	}

	noColor := runNoColor || runJSON || !output.IsTerminal(os.Stdout)
	formatter := output.NewFormatter(cmd.OutOrStdout(), noColor)
	if runJSON {
		return formatter.WriteJSON(result)
	}
	return formatter.WriteResult(result)
}
