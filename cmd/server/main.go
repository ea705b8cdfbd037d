package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqa/internal/bootstrap"
	httptransport "docqa/internal/transport/http"
)

const (
	serverModule    = "server"
	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("docqa server: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.New(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close resources failed: %v\n", err)
		}
	}()

	srv := &http.Server{
		Addr:              a.Config.HTTPAddr(),
		Handler:           httptransport.NewRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info(serverModule, "listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info(serverModule, "shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error(serverModule, "server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	drainExchanges(shutdownCtx, a)
	return nil
}

// drainExchanges gives outstanding questions until ctx expires to settle so
// their turns reach the journal.
func drainExchanges(ctx context.Context, a *bootstrap.App) {
	done := make(chan struct{})
	go func() {
		a.Exchange.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.Logger.Warn(serverModule, "exchanges still pending at shutdown", map[string]interface{}{
			"pending": a.Exchange.InFlight(),
		})
	}
}
