package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/scorechart/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Scorechart HTTP API",
	Long: `Serve chart descriptions over HTTP.

Routes:
  GET  /healthz
  GET  /v1/instruments
  POST /v1/charts
  POST /v1/tooltip
  GET  /v1/patients/:patient/dashboard
  GET  /v1/patients/:patient/charts/:instrument
  POST /v1/patients/:patient/observations/:instrument

Chart routes accept ?format=json|csv|html.

Examples:
  # Serve on the default address
  scorechart serve

  # Serve on all interfaces backed by PostgreSQL
  SCORECHART_STORE_BACKEND=postgresql SCORECHART_STORE_DB_CONNECT="..." scorechart serve --listen :8080`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(cfg, registry, st, logger).Start(ctx, cfg.Listen)
	},
}
