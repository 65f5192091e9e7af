package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// MaxValueLength is the exclusive upper bound for string property values.
// Anything longer is treated as free text.
const MaxValueLength = 50

// props is the complete set of keys a telemetry event may carry.
type props struct {
	Timestamp     int64  `mapstructure:"timestamp"`
	State         string `mapstructure:"state"`
	PreviousState string `mapstructure:"previousState"`
	Event         string `mapstructure:"event"`
	Result        string `mapstructure:"result"`
	Reason        string `mapstructure:"reason"`
}

var allowedKeys = map[string]bool{
	domain.PropTimestamp:     true,
	domain.PropState:         true,
	domain.PropPreviousState: true,
	domain.PropEvent:         true,
	domain.PropResult:        true,
	domain.PropReason:        true,
}

// Sink validates telemetry against the allow-list and forwards accepted
// events to its publishers. Rejected events are dropped whole.
type Sink struct {
	publishers []ports.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.EventSink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithPublisher appends a publisher. Publishers are called in registration order.
func WithPublisher(p ports.Publisher) Option {
	return func(s *Sink) {
		s.publishers = append(s.publishers, p)
	}
}

// WithLogger configures the logger used for drop warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		s.now = now
	}
}

// NewSink creates a Sink. Without publishers it validates and discards.
func NewSink(opts ...Option) *Sink {
	s := &Sink{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit validates name and props and forwards the record.
// A refused event returns an error matching domain.ErrEventDropped.
func (s *Sink) Emit(ctx context.Context, name domain.TelemetryEvent, p map[string]any) error {
	rec, err := s.validate(name, p)
	if err != nil {
		s.logger.Warn("telemetry event dropped", "error", err)
		return err
	}

	var errs []error
	for _, pub := range s.publishers {
		if err := pub.Publish(ctx, rec); err != nil {
			s.logger.Warn("telemetry publish failed", "event", string(rec.Name), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// validate never echoes property values into the returned error; only key names.
func (s *Sink) validate(name domain.TelemetryEvent, p map[string]any) (ports.Record, error) {
	if !allowedEvent(name) {
		return ports.Record{}, fmt.Errorf("%w: event name not allowed", domain.ErrEventDropped)
	}

	for key := range p {
		if !allowedKeys[key] {
			return ports.Record{}, fmt.Errorf("%w: key %q not allowed", domain.ErrEventDropped, key)
		}
	}

	var decoded props
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &decoded,
	})
	if err != nil {
		return ports.Record{}, err
	}
	if err := dec.Decode(p); err != nil {
		return ports.Record{}, fmt.Errorf("%w: malformed properties", domain.ErrEventDropped)
	}

	checks := []struct {
		key   string
		value string
		valid func(string) bool
	}{
		{domain.PropState, decoded.State, func(v string) bool { return domain.State(v).Valid() }},
		{domain.PropPreviousState, decoded.PreviousState, func(v string) bool { return domain.State(v).Valid() }},
		{domain.PropEvent, decoded.Event, func(v string) bool { return domain.Event(v).Valid() }},
		{domain.PropResult, decoded.Result, func(v string) bool { return v == domain.ResultOK || v == domain.ResultFail }},
		{domain.PropReason, decoded.Reason, func(v string) bool {
			return v == domain.ReasonCancel || v == domain.ReasonEsc || v == domain.ReasonAbort
		}},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if len(c.value) >= MaxValueLength {
			return ports.Record{}, fmt.Errorf("%w: key %q too long", domain.ErrEventDropped, c.key)
		}
		if !c.valid(c.value) {
			return ports.Record{}, fmt.Errorf("%w: key %q has unexpected value", domain.ErrEventDropped, c.key)
		}
	}

	if decoded.Timestamp == 0 {
		decoded.Timestamp = s.now().UnixMilli()
	}

	return ports.Record{
		Name:          name,
		Timestamp:     decoded.Timestamp,
		State:         decoded.State,
		PreviousState: decoded.PreviousState,
		Event:         decoded.Event,
		Result:        decoded.Result,
		Reason:        decoded.Reason,
	}, nil
}

func allowedEvent(name domain.TelemetryEvent) bool {
	for _, n := range domain.TelemetryEvents {
		if n == name {
			return true
		}
	}
	return false
}

// TransitionProps builds the property set of a state.transition event.
func TransitionProps(r domain.TransitionResult) map[string]any {
	return map[string]any{
		domain.PropState:         string(r.To),
		domain.PropPreviousState: string(r.From),
		domain.PropEvent:         string(r.Event),
	}
}
