package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot a demo model and drive it to Finished",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, sink, closeSink, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	defer closeSink()

	m := buildDemoModel(cfg, sink)
	if err := m.Start(context.Background()); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := m.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if err := m.Finish(); err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "model finished at clock=%v, state=%s, errors=%d\n",
		m.Exec.Now(), m.Machine.Current(), len(m.Errors()))
	return nil
}
