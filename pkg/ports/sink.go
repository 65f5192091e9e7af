package ports

import (
	"context"

	"github.com/aretw0/emberly/pkg/domain"
)

// EventSink accepts semantic telemetry. Implementations drop anything outside the allow-list.
type EventSink interface {
	Emit(ctx context.Context, name domain.TelemetryEvent, props map[string]any) error
}

// Record is a validated telemetry event ready for transmission.
type Record struct {
	Name          domain.TelemetryEvent `json:"name"`
	Timestamp     int64                 `json:"timestamp"`
	State         string                `json:"state,omitempty"`
	PreviousState string                `json:"previousState,omitempty"`
	Event         string                `json:"event,omitempty"`
	Result        string                `json:"result,omitempty"`
	Reason        string                `json:"reason,omitempty"`
}

// Publisher transmits validated telemetry records.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}
