// Command gust runs load plans from the command line.
//
// It loads a YAML plan file, executes it against the built-in synthetic
// operation, and prints the aggregated result:
//
//	gust run plan.yaml
//	gust run --json plan.yaml
//
// Real workloads use gust as a library; see the gust package documentation.
package main

import (
	"os"

	"github.com/gustlabs/gust/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
