package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/stepgrid/internal/config"
	"github.com/aretw0/stepgrid/internal/logging"
	httpAdapter "github.com/aretw0/stepgrid/pkg/adapters/http"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop signal.
const shutdownTimeout = 5 * time.Second

// NewServeHandler wires store, library, sessions and metrics into the HTTP API.
// The returned close func releases the backend.
func NewServeHandler(ctx context.Context, cfg config.Config, logger *slog.Logger, debug bool) (http.Handler, func() error, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	backend, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	library, err := OpenLibrary(cfg.Library.Dir)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}

	hooks := domain.LifecycleHooks{}
	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithTemplateStore(backend.Store),
	}
	if library != nil {
		handlerOpts = append(handlerOpts, httpAdapter.WithLibrary(library))
	}
	if cfg.HTTP.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics("")
		if err := metrics.Register(reg); err != nil {
			_ = backend.Close()
			return nil, nil, err
		}
		hooks = metrics.Hooks()
		handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(observability.Handler(reg)))
	}

	manager := NewManager(cfg, backend, logger, hooks, debug)
	return httpAdapter.NewHandler(manager, handlerOpts...), backend.Close, nil
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger, debug bool) error {
	handler, closeBackend, err := NewServeHandler(ctx, cfg, logger, debug)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting stepgrid server",
			"address", srv.Addr,
			"store", cfg.Store.Backend,
			"library", cfg.Library.Dir,
			"metrics", cfg.HTTP.Metrics,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// SSE streams only end when their session does, so Close after the deadline.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		logger.Info("Server stopped gracefully")
		return nil
	}
}
