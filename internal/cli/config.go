package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sageconfig "github.com/sagekernel/sagekernel/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := sageconfig.Load()
	if err != nil {
		return err
	}
	encoded, err := encodeConfig(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), encoded)
	return nil
}
