// Kasactl is a control utility for TP-Link Kasa HS300 smart power strips.
//
// It speaks the device's local protocol directly: no cloud account and
// no vendor app required. It provides outlet switching, energy
// readings, device maintenance commands, an interactive dashboard and
// a small HTTP API for home automation glue.
//
// Usage:
//
//	kasactl [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'kasactl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xtort/kasa-hs300/internal/logging"
	"github.com/xtort/kasa-hs300/internal/powerstrip"
	"github.com/xtort/kasa-hs300/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := powerstrip.Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "\n%s\n", hint)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kasactl",
	Short: "Kasa HS300 Power Strip Control Utility",
	Long: `A standalone utility for controlling TP-Link Kasa HS300 smart power strips.

Talks the local device protocol directly over TCP or UDP port 9999;
no cloud account or vendor app is required. Provides outlet switching,
energy readings, device maintenance, an interactive dashboard and an
HTTP API server.

If no command is specified, the interactive dashboard will launch.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the dashboard when no subcommand given
		return runMenu(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kasactl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
