package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/concord/internal/cli"
	httpadapter "github.com/aretw0/concord/pkg/adapters/http"
	"github.com/aretw0/concord/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the negotiation engine over an HTTP API",
	Long: `Serve runs sessions in the background and exposes them over REST plus
an SSE event stream, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, debug, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Address = addr
		}

		ctx, cancel := cli.SignalContext()
		defer cancel()

		logger := cli.NewServerLogger(debug)
		registry := prometheus.NewRegistry()
		hooks := observability.NewMetrics(registry).Hooks()
		if debug {
			hooks = hooks.Merge(cli.DebugHooks(logger))
		}
		engine, cleanup, err := cli.NewEngine(cfg, logger, hooks)
		if err != nil {
			return err
		}
		defer cleanup()

		server := &http.Server{
			Addr:    cfg.HTTP.Address,
			Handler: httpadapter.NewHandler(engine, httpadapter.WithMetrics(registry)),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", cfg.HTTP.Address)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
