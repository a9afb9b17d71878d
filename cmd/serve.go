package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/handlers"
	"github.com/lehigh-university-libraries/halloween/internal/inject"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Halloween transform API",
		Long: `Starts the HTTP API on the specified port.

Routes:
  POST /api/transform-halloween   transform a data URL image (also served at /transform)
  GET  /api/debug                 runtime diagnostics, never exposes the API key
  GET  /healthcheck               liveness probe

Set GEMINI_API_KEY before starting; set REDIS_URL to share rate limits between instances.`,
		Example: `  # Start server on default port 8888
  halloween serve

  # Start server on custom port with a config file
  halloween serve --port 3000 --config ./halloween.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.config
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cfg.APIKey == "" {
				slog.Warn("GEMINI_API_KEY is not set, transform requests will fail")
			}

			injector := inject.Setup(cmd.Context(), cfg)
			defer func() {
				if err := injector.Shutdown(); err != nil {
					slog.Error("Injector shutdown failed", "err", err)
				}
			}()

			handler, err := do.Invoke[*handlers.Handler](injector)
			if err != nil {
				return err
			}

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				slog.Info("Halloween API available", "addr", addr, "url", "http://localhost"+addr, "environment", cfg.Environment, "model", cfg.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (overrides PORT)")

	return cmd
}
