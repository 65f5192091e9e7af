package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/emberly"
	"github.com/aretw0/emberly/internal/config"
	"github.com/aretw0/emberly/pkg/adapters/redis"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// createEngine builds an Engine from cfg with standard CLI conventions.
// Telemetry goes to the debug log (telemetry.log), to Redis through a queue
// when an address is configured, and to Prometheus when reg is non-nil. The
// returned cleanup closes the engine and any publisher connections.
func createEngine(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, debug bool) (*emberly.Engine, func(), error) {
	engineOpts := []emberly.Option{
		emberly.WithLogger(logger),
		emberly.WithLocale(cfg.Conversation.Locale),
		emberly.WithResponseTimeout(cfg.Conversation.ResponseTimeout),
	}
	var closers []func()

	if cfg.Telemetry.Log {
		engineOpts = append(engineOpts, emberly.WithPublisher(telemetry.NewLogPublisher(logger, slog.LevelDebug)))
	}

	if r := cfg.Telemetry.Redis; r.Addr != "" {
		pub := redis.New(r.Addr, r.Password, r.DB, redis.WithStream(r.Stream), redis.WithMaxLen(r.MaxLen))
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := pub.Ping(pingCtx); err != nil {
			logger.Warn("redis telemetry unavailable; publishing continues per event", "addr", r.Addr, "err", err)
		}
		cancel()
		// Delivery runs off the controller lock so a slow Redis never delays a transition.
		async := telemetry.NewAsyncPublisher(pub, telemetry.WithAsyncLogger(logger))
		engineOpts = append(engineOpts, emberly.WithPublisher(async))
		closers = append(closers, func() {
			_ = async.Close()
			_ = pub.Close()
		})
	}

	var hooks []domain.LifecycleHooks
	if reg != nil {
		metrics := telemetry.NewMetrics(reg)
		engineOpts = append(engineOpts, emberly.WithPublisher(metrics))
		hooks = append(hooks, metrics.Hooks())
	}
	if debug {
		hooks = append(hooks, createDebugHooks(logger))
	}
	if len(hooks) > 0 {
		engineOpts = append(engineOpts, emberly.WithLifecycleHooks(combineHooks(hooks...)))
	}

	engine, err := emberly.New(cfg.ClientBaseURL(), engineOpts...)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}

	cleanup := func() {
		engine.Close()
		for _, c := range closers {
			c()
		}
	}
	return engine, cleanup, nil
}
