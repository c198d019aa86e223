package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Boot a demo model and print its state, clock, pending events and errors",
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, sink, closeSink, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	defer closeSink()

	m := buildDemoModel(cfg, sink)
	if err := m.Start(context.Background()); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state:       %s\n", m.Machine.Current())
	fmt.Fprintf(out, "clock:       %v\n", m.Exec.Now())
	fmt.Fprintf(out, "pending:     %d\n", m.Exec.Pending())
	fmt.Fprintf(out, "errors:      %d\n", len(m.Errors()))
	for _, e := range m.Errors() {
		fmt.Fprintf(out, "  - %v\n", e)
	}
	return nil
}
