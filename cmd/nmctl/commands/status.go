package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell/nmd/internal/cliutil"
	"github.com/inkwell/nmd/internal/metrics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the Name Server's current registry counts",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/status")
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", addr, resp.StatusCode)
	}

	var st metrics.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("failed to decode status response: %w", err)
	}

	cliutil.SimpleTable(os.Stdout, [][2]string{
		{"Storage Servers", strconv.Itoa(st.StorageServers)},
		{"Clients", strconv.Itoa(st.Clients)},
		{"Files", strconv.Itoa(st.Files)},
		{"Locks held", strconv.Itoa(st.LocksHeld)},
	})
	return nil
}
