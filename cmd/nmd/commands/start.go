package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell/nmd/internal/config"
	"github.com/inkwell/nmd/internal/logger"
	"github.com/inkwell/nmd/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Name Server",
	Long: `Start the Name Server, accepting Storage Server and client
connections on the configured TCP address.

Examples:
  nmd start
  nmd start --config /etc/nmd/config.yaml
  NMD_SERVER_LISTEN_ADDR=:9090 nmd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(ConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("nmd is running; press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, stopping gracefully")
		srv.Stop()
		if err := <-serverDone; err != nil {
			logger.Error("server stopped with error", logger.Err(err))
			return err
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", logger.Err(err))
			return err
		}
	}

	logger.Info("nmd stopped")
	return nil
}
