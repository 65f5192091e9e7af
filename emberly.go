package emberly

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/client"
	"github.com/aretw0/emberly/pkg/conversation"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
	"github.com/aretw0/emberly/pkg/telemetry"
)

// Version is the release version, read from the VERSION file.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point: one conversation wired to a network
// client and a telemetry sink.
type Engine struct {
	*conversation.Controller

	client     *client.Client
	responder  ports.Responder
	sink       ports.EventSink
	publishers []ports.Publisher
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	locale     string
	timeout    time.Duration
	httpClient *http.Client
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPublisher adds a telemetry publisher to the default sink.
func WithPublisher(p ports.Publisher) Option {
	return func(e *Engine) {
		e.publishers = append(e.publishers, p)
	}
}

// WithSink replaces the default sink. Publishers given with WithPublisher are ignored.
func WithSink(sink ports.EventSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLocale sets the locale sent with every message.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		e.locale = locale
	}
}

// WithResponseTimeout bounds the time a request may stay in flight.
func WithResponseTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithHTTPClient sets the http.Client used by the default network client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = hc
	}
}

// WithResponder injects a custom Responder, bypassing the HTTP client.
func WithResponder(r ports.Responder) Option {
	return func(e *Engine) {
		e.responder = r
	}
}

// New creates an Engine talking to the API at baseURL.
// baseURL may be empty only when WithResponder is given.
func New(baseURL string, opts ...Option) (*Engine, error) {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.responder == nil {
		if baseURL == "" {
			return nil, fmt.Errorf("baseURL is required when no custom responder is provided")
		}
		clientOpts := []client.Option{client.WithLogger(e.logger)}
		if e.httpClient != nil {
			clientOpts = append(clientOpts, client.WithHTTPClient(e.httpClient))
		}
		e.client = client.New(baseURL, clientOpts...)
		e.responder = e.client
	}

	if e.sink == nil {
		sinkOpts := []telemetry.Option{telemetry.WithLogger(e.logger)}
		for _, p := range e.publishers {
			sinkOpts = append(sinkOpts, telemetry.WithPublisher(p))
		}
		e.sink = telemetry.NewSink(sinkOpts...)
	}

	e.Controller = conversation.New(e.responder,
		conversation.WithSink(e.sink),
		conversation.WithLogger(e.logger),
		conversation.WithLocale(e.locale),
		conversation.WithResponseTimeout(e.timeout),
		conversation.WithLifecycleHooks(e.hooks),
	)
	return e, nil
}

// Client returns the network client, or nil when a custom responder is used.
func (e *Engine) Client() *client.Client {
	return e.client
}

// Emit reports a UI telemetry event through the engine's sink.
func (e *Engine) Emit(ctx context.Context, name domain.TelemetryEvent, props map[string]any) error {
	return e.sink.Emit(ctx, name, props)
}

// Submit sets the draft, dispatches SUBMIT and waits until the request settles.
// Outside listening it returns an error matching domain.ErrEventRejected and leaves the draft alone.
func (e *Engine) Submit(ctx context.Context, text string) (conversation.Snapshot, error) {
	if state := e.State(); state != domain.StateListening {
		return e.Snapshot(), fmt.Errorf("%w: SUBMIT from %s", domain.ErrEventRejected, state)
	}
	e.SetDraft(text)
	if _, ok := e.Dispatch(domain.EventSubmit); !ok {
		return e.Snapshot(), fmt.Errorf("%w: SUBMIT from %s", domain.ErrEventRejected, e.State())
	}
	return e.AwaitSettled(ctx)
}
