package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/config"
	"github.com/inkscan/inkscan/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inkscan server",
	Long: `Start the inkscan HTTP server.

The server watches its config file and rebuilds the recognition pipeline
on changes, so key rotations and limit changes apply without a restart.

Examples:
  inkscan serve                    # Start on default port 8080
  inkscan serve --port 3000        # Start on custom port
  inkscan serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		host := serveHost
		port := servePort
		if host == "" {
			host = cfgMgr.Get().Server.Host
		}
		if port == "" {
			port = cfgMgr.Get().Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
