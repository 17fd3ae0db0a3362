// Command saxs-runner is a demo driver for the batch scheduler: it loads
// a BatchConfig, admits the described samples, runs the batch to
// quiescence, and reports progress. Modeled on the teacher's
// cmd/chaos-runner root command and run subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "saxs-runner",
		Short: "Run a SAXS batch against the scheduler runtime",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a batch config YAML file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(runCommand())
	root.AddCommand(validateCommand())
	return root
}
