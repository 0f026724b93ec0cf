package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = defaultReadTimeout
	defaultShutdownTimeout = 30 * time.Second
)

// GraceServer runs an HTTP server that drains in-flight requests on
// SIGINT/SIGTERM before exiting. It blocks until shutdown completes.
func GraceServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		if Sugar != nil {
			Sugar.Infof("received %s, draining HTTP server", sig)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if Sugar != nil {
		Sugar.Info("HTTP server shutdown complete")
	}
	return nil
}
