package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/emberly/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultStream is the stream key telemetry records are appended to.
const DefaultStream = "emberly:telemetry"

// DefaultMaxLen caps the stream length (approximate trimming).
const DefaultMaxLen = 10000

// DefaultPublishTimeout bounds a single XADD.
const DefaultPublishTimeout = 500 * time.Millisecond

// StreamPublisher implements ports.Publisher by appending records to a capped Redis stream.
type StreamPublisher struct {
	client *backend.Client
	stream string
	maxLen  int64
	timeout time.Duration
	owned   bool
}

var _ ports.Publisher = (*StreamPublisher)(nil)

// Option configures a StreamPublisher.
type Option func(*StreamPublisher)

// WithStream sets the stream key.
func WithStream(stream string) Option {
	return func(p *StreamPublisher) {
		p.stream = stream
	}
}

// WithMaxLen sets the approximate maximum stream length. Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(p *StreamPublisher) {
		p.maxLen = n
	}
}

// WithPublishTimeout overrides DefaultPublishTimeout. Zero leaves the bound to ctx.
func WithPublishTimeout(d time.Duration) Option {
	return func(p *StreamPublisher) {
		p.timeout = d
	}
}

// New creates a publisher with its own client. The client honors context
// deadlines, and its socket timeouts follow the publish timeout.
func New(address, password string, db int, opts ...Option) *StreamPublisher {
	p := newPublisher(opts)
	clientOpts := &backend.Options{
		Addr:                  address,
		Password:              password,
		DB:                    db,
		ContextTimeoutEnabled: true,
	}
	if p.timeout > 0 {
		clientOpts.DialTimeout = p.timeout
		clientOpts.ReadTimeout = p.timeout
		clientOpts.WriteTimeout = p.timeout
	}
	p.client = backend.NewClient(clientOpts)
	p.owned = true
	return p
}

// NewFromClient creates a publisher from an existing client. Close leaves the client open.
func NewFromClient(client *backend.Client, opts ...Option) *StreamPublisher {
	p := newPublisher(opts)
	p.client = client
	return p
}

func newPublisher(opts []Option) *StreamPublisher {
	p := &StreamPublisher{
		stream:  DefaultStream,
		maxLen:  DefaultMaxLen,
		timeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish appends rec as one stream entry. Empty fields are omitted.
func (p *StreamPublisher) Publish(ctx context.Context, rec ports.Record) error {
	values := map[string]any{
		"name":      string(rec.Name),
		"timestamp": rec.Timestamp,
	}
	for k, v := range map[string]string{
		"state":         rec.State,
		"previousState": rec.PreviousState,
		"event":         rec.Event,
		"result":        rec.Result,
		"reason":        rec.Reason,
	} {
		if v != "" {
			values[k] = v
		}
	}

	args := &backend.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis telemetry publish: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (p *StreamPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the client when the publisher created it.
func (p *StreamPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}
