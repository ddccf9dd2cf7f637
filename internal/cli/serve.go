package cli

import (
	"github.com/spf13/cobra"

	"github.com/tillpoint-pos/tillpoint/internal/daemon"
)

// ─── serve ──────────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides config)")
	serveCmd.Flags().String("store", "", "Data directory (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the back-office HTTP server",
	Long: `Start the TillPoint daemon: opens the SQLite store and serves the
HTTP API until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store.Dir = store
	}
	return daemon.Run(cfg)
}
