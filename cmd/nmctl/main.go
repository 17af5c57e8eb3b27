// Command nmctl is a small operator CLI that queries a running Name
// Server's metrics/status HTTP endpoint for a human-readable summary.
package main

import (
	"fmt"
	"os"

	"github.com/inkwell/nmd/cmd/nmctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
