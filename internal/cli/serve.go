package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	folihttp "github.com/aretw0/folio/pkg/adapters/http"
	"github.com/aretw0/folio/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP surface of app.
func Handler(app *App) http.Handler {
	opts := []folihttp.Option{
		folihttp.WithStreams(app.Streams),
		folihttp.WithLogger(app.Logger),
	}
	if app.Config.Server.MaxInputSize > 0 {
		opts = append(opts, folihttp.WithMaxInputSize(app.Config.Server.MaxInputSize))
	}
	if app.Config.Server.Metrics {
		opts = append(opts, folihttp.WithMetricsHandler(observability.Handler(app.Registry)))
	}
	return folihttp.NewHandler(app.Bot, opts...)
}

// Serve runs the HTTP server on addr until ctx is done, then shuts it down
// gracefully.
func Serve(ctx context.Context, app *App, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting folio server", "addr", addr, "metrics", app.Config.Server.Metrics)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("Shutting down server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		app.Logger.Info("Server stopped gracefully")
		return nil
	}
}
