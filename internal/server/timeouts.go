// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts and graceful shutdown.
//
//   - ReadTimeout   – abort slow-loris headers (10 s)
//   - WriteTimeout  – cap total response time; /install walks every source,
//     so this is generous (2 min)
//   - IdleTimeout   – close keep-alives on idle clients (60 s)
//
// Run blocks until ctx is cancelled, then drains in-flight requests for up
// to ShutdownGrace before returning.

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ShutdownGrace bounds how long Run waits for in-flight requests.
const ShutdownGrace = 20 * time.Second

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves on ln until ctx is done, then shuts srv down gracefully.
func Run(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	zap.S().Infow("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	zap.S().Infow("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
