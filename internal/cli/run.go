package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fangliji/flowable-engine"
	"github.com/fangliji/flowable-engine/internal/config"
	"github.com/fangliji/flowable-engine/internal/presentation/tui"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Open builds the runtime described by cfg.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	return createEngine(ctx, cfg, createLogger(cfg))
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. The banner is written to out.
func Serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	rt, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Warn("Failed to close stores", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           rt.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		tui.PrintBanner(out, strings.TrimSpace(flowable.Version), srv.Addr)
		rt.Logger.Info("Starting server", "addr", srv.Addr, "graph_store", cfg.Store.Graph, "lock_ttl", cfg.Lock.TTL)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		rt.Logger.Info("Start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		rt.Logger.Info("Server stopped gracefully")
		return nil
	}
}
