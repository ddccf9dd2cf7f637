// Package cli implements the tillpoint command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tillpoint-pos/tillpoint/internal/daemon"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config.toml (default ~/.tillpoint/config.toml)")
}

var rootCmd = &cobra.Command{
	Use:   "tillpoint",
	Short: "Point-of-sale back office",
	Long: `TillPoint is the administrative backend for a point-of-sale system:
customer credit accounts, inventory, sales history, users, and till
sessions, served over a local HTTP API backed by SQLite.`,
	SilenceUsage: true,
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the --config flag against the default path.
func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.DefaultConfigPath()
	}
	return daemon.LoadConfig(path)
}
