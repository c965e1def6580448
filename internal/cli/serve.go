package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/api"
	"github.com/ksyq12/vhostctl/internal/logger"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the host lifecycle API, health probes and Prometheus metrics.

Requests to /vhosts, /vhost/* and /webserver/* must carry the owner id in
the X-Owner-ID header. The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  vhostctl serve
  vhostctl serve --listen 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default from config server.listen)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(cmd, func(_ context.Context, app *App) error {
		addr := app.Config.Server.Listen
		if serveListen != "" {
			addr = serveListen
		}

		log := logger.Zap()
		if err := app.Service.RefreshHosts(ctx); err != nil {
			log.Warn("failed to count hosts", zap.Error(err))
		}
		router := api.NewRouter(app.Service, app.Metrics, log)
		server := api.NewServer(addr, router, log)

		log.Info("serving virtual host API",
			zap.String("addr", addr),
			zap.String("driver", app.Config.Driver),
			zap.String("store", app.Config.Store.Driver),
		)
		return server.Run(ctx)
	})
}
