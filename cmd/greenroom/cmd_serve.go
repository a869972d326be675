package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenroom-dev/greenroom/adapters/api"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// newCmdServe returns a command running the REST API server until SIGINT or
// SIGTERM.
func newCmdServe() *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the REST API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			uc, cfg, err := buildAppUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "serve", cfg.API.Listen)
			defer func() { cleanup(err) }()

			log := logging.FromContext(ctx)
			// Deploys block the handler for as long as the backend takes, so
			// only the header read gets a deadline.
			srv := &http.Server{
				Addr:              cfg.API.Listen,
				Handler:           api.New(uc, log).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Infof(ctx, "serving API on %s", srv.Addr)
				if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
					errCh <- serveErr
					return
				}
				errCh <- nil
			}()

			select {
			case err = <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Infof(ctx, "shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errCh
		},
	}
}
