// Command nmd runs the Name Server: the coordinator process that tracks
// Storage Servers and clients, brokers file discovery, and enforces
// sentence-level locks and per-file ACLs.
package main

import (
	"fmt"
	"os"

	"github.com/inkwell/nmd/cmd/nmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
