package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/emberly/internal/config"
	httpAdapter "github.com/aretw0/emberly/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout gives outstanding requests a deadline for completion.
const ShutdownTimeout = 5 * time.Second

// ServeOptions contains the configuration for the serve command.
type ServeOptions struct {
	ConfigPath string
	// Addr overrides proxy.addr.
	Addr  string
	Debug bool
}

// RunServe serves the API proxy, /healthz and /metrics until ctx is done.
func RunServe(ctx context.Context, opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Proxy.Addr = opts.Addr
	}
	logger := createLogger(cfg.Logging.Level, opts.Debug)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := &http.Server{
		Addr:              cfg.Proxy.Addr,
		Handler:           newServeHandler(cfg, logger, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveHTTP(ctx, srv, logger)
}

// newServeHandler mounts the proxy (unless api.use_proxy is off) and metrics.
func newServeHandler(cfg config.Config, logger *slog.Logger, reg *prometheus.Registry) http.Handler {
	var proxy *httpAdapter.Proxy
	if cfg.API.UseProxy {
		proxy = httpAdapter.NewProxy(cfg.API.BaseURL,
			httpAdapter.WithUpstreamTimeout(cfg.Proxy.UpstreamTimeout),
			httpAdapter.WithMaxBodyBytes(cfg.Proxy.MaxBodyBytes),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(httpAdapter.NewMetrics(reg)),
		)
	} else {
		logger.Info("API proxy disabled; clients call the API directly", "api", cfg.API.BaseURL)
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	mux.Handle("/", httpAdapter.NewHandler(proxy))
	return mux
}

func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting emberly server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("emberly server stopped gracefully")
		return nil
	})

	return g.Wait()
}
