package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

func serveCmd(a *app) *cobra.Command {
	var secure bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Long: `Apply pending migrations, seed the default categories into an empty ledger
and serve the web UI on $PORT until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := a.logger.WithComponent(applog.ComponentApp)
			logger.Info("Starting fintrack", "version", version, applog.FieldOperation, applog.OpStartup)

			store, ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}

			srv, err := apphttp.NewServer(apphttp.Options{
				Addr:               a.cfg.Addr(),
				RateLimitPerMinute: a.cfg.RateLimitPerMinute,
				CacheTTL:           a.cfg.ReportCacheTTL,
				SecureHeaders:      secure,
			}, ledger, store, a.reporter(store))
			if err != nil {
				_ = ledger.Close()
				return err
			}

			ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("Server shutdown error", applog.FieldError, err)
				}
				if err := ledger.Close(); err != nil {
					logger.Error("Ledger close error", applog.FieldError, err)
				}
			})

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", "addr", srv.Addr, "db", store.Path())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				logger.Error("Server error", applog.FieldError, err, "addr", srv.Addr)
				_ = ledger.Close()
				return err
			case <-ctx.Done():
				cli.WaitForShutdown(ctx, done)
				logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&secure, "secure-headers", false, "send HSTS and cross-origin isolation headers (use behind HTTPS)")
	return cmd
}
