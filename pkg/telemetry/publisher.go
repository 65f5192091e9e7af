package telemetry

import (
	"context"
	"log/slog"

	"github.com/aretw0/emberly/pkg/ports"
)

// LogPublisher writes accepted records to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogPublisher creates a LogPublisher logging at the given level.
func NewLogPublisher(logger *slog.Logger, level slog.Level) *LogPublisher {
	return &LogPublisher{logger: logger, level: level}
}

// Publish implements ports.Publisher.
func (p *LogPublisher) Publish(ctx context.Context, rec ports.Record) error {
	attrs := []slog.Attr{slog.Int64("timestamp", rec.Timestamp)}
	for _, kv := range [][2]string{
		{"state", rec.State},
		{"previous_state", rec.PreviousState},
		{"event", rec.Event},
		{"result", rec.Result},
		{"reason", rec.Reason},
	} {
		if kv[1] != "" {
			attrs = append(attrs, slog.String(kv[0], kv[1]))
		}
	}
	p.logger.LogAttrs(ctx, p.level, string(rec.Name), attrs...)
	return nil
}

// PublisherFunc adapts a function to ports.Publisher.
type PublisherFunc func(ctx context.Context, rec ports.Record) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, rec ports.Record) error {
	return f(ctx, rec)
}
