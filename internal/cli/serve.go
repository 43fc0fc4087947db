package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zerodha-roast/internal/api"
	"zerodha-roast/internal/metrics"
)

func addServeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newServeCmd(app))
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long: `Run the HTTP gateway until interrupted.

Every route under /api takes the caller's credentials in the request; the
gateway keeps no session between requests.`,
		Example: `  roast serve
  roast serve --addr :9090
  roast serve --read-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				app.Config.Server.Addr = addr
			}
			if readOnly, _ := cmd.Flags().GetBool("read-only"); readOnly {
				app.Config.Security.ReadOnlyMode = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("read-only", false, "refuse order placement")

	return cmd
}

// Handler builds the complete HTTP handler for the current configuration.
func (a *App) Handler() *api.Handler {
	return api.NewHandler(a.Service())
}

// Serve runs the gateway until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.Config.Server.MetricsEnabled && a.Metrics == nil {
		a.Metrics = metrics.New()
	}

	router := api.NewRouter(api.RouterDeps{
		Handler:    a.Handler(),
		Metrics:    a.Metrics,
		Logger:     a.Logger,
		CORSOrigin: a.Config.Server.CORSOrigin,
	})

	srv := api.NewServer(api.ServerConfig{
		Addr:            a.Config.Server.Addr,
		ReadTimeout:     a.Config.Server.ReadTimeout,
		WriteTimeout:    a.Config.Server.WriteTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	}, router, a.Logger)

	a.Logger.Info().
		Str("upstream", a.Config.Kite.BaseURL).
		Bool("read_only", a.Config.Security.ReadOnlyMode).
		Bool("metrics", a.Metrics != nil).
		Msg("Starting gateway")

	return srv.Run(ctx)
}
