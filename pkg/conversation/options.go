package conversation

import (
	"log/slog"
	"time"

	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
)

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithSink sets the telemetry sink. The default discards everything.
func WithSink(sink ports.EventSink) Option {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLocale sets the locale passed to the responder. Empty lets the responder pick.
func WithLocale(locale string) Option {
	return func(c *Controller) {
		c.locale = locale
	}
}

// WithResponseTimeout bounds the time spent in thinking. Expiry is a failure.
// Zero (the default) leaves the bound to the transport.
func WithResponseTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}
