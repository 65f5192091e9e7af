package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
)

const (
	// DefaultBufferSize is the number of records an AsyncPublisher queues.
	DefaultBufferSize = 256
	// DefaultDeliveryTimeout bounds one delivery to the wrapped publisher.
	DefaultDeliveryTimeout = 500 * time.Millisecond
)

// AsyncPublisher queues records and delivers them to the wrapped publisher
// from one goroutine, so Publish never waits on the network.
// A full queue drops the record.
type AsyncPublisher struct {
	next    ports.Publisher
	logger  *slog.Logger
	timeout time.Duration
	size    int

	mu      sync.RWMutex
	closed  bool
	records chan ports.Record
	done    chan struct{}
}

var _ ports.Publisher = (*AsyncPublisher)(nil)

// AsyncOption configures an AsyncPublisher.
type AsyncOption func(*AsyncPublisher)

// WithBufferSize overrides DefaultBufferSize.
func WithBufferSize(n int) AsyncOption {
	return func(p *AsyncPublisher) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithDeliveryTimeout overrides DefaultDeliveryTimeout.
func WithDeliveryTimeout(d time.Duration) AsyncOption {
	return func(p *AsyncPublisher) {
		p.timeout = d
	}
}

// WithAsyncLogger sets the logger used for delivery failures.
func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(p *AsyncPublisher) {
		p.logger = logger
	}
}

// NewAsyncPublisher starts the delivery goroutine. Call Close to stop it.
func NewAsyncPublisher(next ports.Publisher, opts ...AsyncOption) *AsyncPublisher {
	p := &AsyncPublisher{
		next:    next,
		logger:  logging.NewNop(),
		timeout: DefaultDeliveryTimeout,
		size:    DefaultBufferSize,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.records = make(chan ports.Record, p.size)
	go p.run()
	return p
}

// Publish enqueues rec without blocking.
func (p *AsyncPublisher) Publish(_ context.Context, rec ports.Record) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("%w: publisher closed", domain.ErrEventDropped)
	}
	select {
	case p.records <- rec:
		return nil
	default:
		return fmt.Errorf("%w: telemetry queue full", domain.ErrEventDropped)
	}
}

// Close stops accepting records and waits for the queued ones to be delivered.
// Each delivery is bounded by the delivery timeout.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.records)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for rec := range p.records {
		ctx, cancel := context.Background(), context.CancelFunc(func() {})
		if p.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
		}
		if err := p.next.Publish(ctx, rec); err != nil {
			p.logger.Warn("telemetry delivery failed", "event", string(rec.Name), "error", err)
		}
		cancel()
	}
}
