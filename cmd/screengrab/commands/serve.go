package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/ScreenGrab/internal/api"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ScreenGrab server",
	Long: `Start the ScreenGrab HTTP server.

The server exposes displays, windows and focus state over a REST API,
serves display captures as PNG and streams focus changes over a
websocket.`,
	Example: `  # Start server on default port (8080)
  screengrab serve

  # Start server on custom port
  screengrab serve --port 9090

  # Start with debug logging
  screengrab serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	session, configMgr, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	cfg := configMgr.Get()

	// Override port from flag if provided
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			cfg.ServerPort = port
			configMgr.Set(cfg)
		}
	}

	log := logger.WithComponent("serve")
	server := api.NewServer(session, configMgr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Msg("ScreenGrab is running, press Ctrl+C to stop")
	fmt.Printf("API: http://localhost:%d/api\n", cfg.ServerPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
		log.Info().Msg("Shutting down")
		return nil
	}
}
