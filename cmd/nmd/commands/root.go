// Package commands implements the nmd CLI's subcommands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time via -ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "nmd",
	Short: "nmd is the Name Server for the distributed document-editing service",
	Long: `nmd coordinates a fleet of Storage Servers and client connections:
discovery, authentication, file metadata, sentence-level locks, and
per-file access control lists.

Use "nmd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nmd/config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// ConfigFile returns the --config flag value.
func ConfigFile() string {
	return cfgFile
}
