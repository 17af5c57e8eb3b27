// Package commands implements the nmctl CLI's subcommands.
package commands

import "github.com/spf13/cobra"

var addr string

var rootCmd = &cobra.Command{
	Use:   "nmctl",
	Short: "nmctl inspects a running Name Server",
	Long: `nmctl is an operator tool that queries a Name Server's metrics/status
HTTP endpoint and renders the result as a table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:9090", "Name Server metrics/status HTTP address")
	rootCmd.AddCommand(statusCmd)
}
