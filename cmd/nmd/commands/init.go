package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell/nmd/internal/config"
)

var force bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := ConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := config.Save(config.Default(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("Start the server with: nmd start --config " + path)
	return nil
}
