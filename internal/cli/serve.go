package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the experiment API server",
	Long: `Start the JSON API consumed by the upstream platform.

Examples:
  pagelift serve              # Start on the configured port (default 8080)
  pagelift serve --port 3000  # Start on port 3000`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides PAGELIFT_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	port := app.Config.Server.Port
	if servePort != 0 {
		port = servePort
	}

	server := web.NewServer(port, app.Service, app.Logger)
	return server.Start(ctx)
}
