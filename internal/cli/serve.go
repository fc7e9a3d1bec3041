package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nocturna-app/nocturna/internal/api"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve the NOCTURNA JSON API on [api].host:[api].port until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(&api.EngagementAPI{
		Transactions: a.transactions,
		Progress:     a.progress,
		Social:       a.social,
		Tracer:       a.tracer,
		Log:          a.log,
	}, a.log)
	if a.cfg.API.Metrics {
		srv.EnableMetrics()
	}

	httpSrv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", httpSrv.Addr).Str("storage", a.cfg.Storage.Dir).Msg("NOCTURNA API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Stack().Err(err).Msg("forced shutdown")
			return err
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		a.log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}
