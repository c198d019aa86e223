// Package cli implements the sagekernel command-line interface using
// Cobra, mirroring the teacher's internal/cli root/subcommand layout.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sagekernel",
	Short: "sagekernel — a discrete-event simulation kernel",
	Long: `sagekernel is a general-purpose discrete-event simulation kernel:
an executive with a priority-ordered event queue and detachable
coroutines, a task/edge graph engine, a milestone constraint network,
and a scored resource manager.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
