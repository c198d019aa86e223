package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	sageconfig "github.com/sagekernel/sagekernel/internal/config"
	"github.com/sagekernel/sagekernel/internal/httpapi"
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the observability HTTP surface (/healthz, /metrics, /status)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, sink, closeSink, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	defer closeSink()

	addr := cfg.Telemetry.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	m := buildDemoModel(cfg, sink)
	srv := httpapi.NewServer(m)

	fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
