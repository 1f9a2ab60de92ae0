// Package commands implements the CLI commands for the ariad server.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ariad",
	Short: "ariad - self-hosted endpoint for Aria Air WiFi scales",
	Long: `ariad replaces the discontinued cloud endpoint a WiFi body scale
posts its measurements to. Redirect the vendor hostnames to this server
via DNS; the scale uploads over plain HTTP and ariad stores scales,
measurements and user profiles in SQLite or PostgreSQL, exposing them
through a JSON management API.

Use "ariad [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrf("Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ariad.yaml or /etc/ariad/ariad.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ariad %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}
