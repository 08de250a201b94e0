package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/myrjola/gympal/internal/e2etest"
	"golang.org/x/sync/errgroup"
)

// defaultTimeout bounds ordinary requests and the graceful shutdown.
const defaultTimeout = 2 * time.Second

// configureAndStartServer listens on addr and serves handler until ctx is cancelled or SIGTERM arrives, then drains
// in-flight requests. The bound address is logged under e2etest.LogAddrKey so tests can use port 0.
func (app *application) configureAndStartServer(ctx context.Context, addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       defaultTimeout,
		WriteTimeout:      defaultTimeout,
		IdleTimeout:       time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server",
			slog.String(e2etest.LogAddrKey, listener.Addr().String()))
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		app.logger.LogAttrs(shutdownCtx, slog.LevelInfo, "shutting down server")
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		return nil
	})
	return g.Wait() //nolint:wrapcheck // both goroutines wrap their errors.
}
