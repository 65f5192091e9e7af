package domain

import (
	"context"
	"time"
)

// TelemetryEvent names a semantic telemetry event. Only the names below are transmitted.
type TelemetryEvent string

const (
	TelemetryBeginClicked   TelemetryEvent = "ui.begin_clicked"
	TelemetryCancelClicked  TelemetryEvent = "ui.cancel_clicked"
	TelemetryTransition     TelemetryEvent = "state.transition"
	TelemetryRequestStarted TelemetryEvent = "api.request_started"
	TelemetryRequestFailed  TelemetryEvent = "api.request_failed"
)

// TelemetryEvents is the telemetry allow-list.
var TelemetryEvents = []TelemetryEvent{
	TelemetryBeginClicked,
	TelemetryCancelClicked,
	TelemetryTransition,
	TelemetryRequestStarted,
	TelemetryRequestFailed,
}

// Telemetry property keys.
const (
	PropTimestamp     = "timestamp"
	PropState         = "state"
	PropPreviousState = "previousState"
	PropEvent         = "event"
	PropResult        = "result"
	PropReason        = "reason"
)

// Values accepted for PropResult and PropReason.
const (
	ResultOK   = "ok"
	ResultFail = "fail"

	ReasonCancel = "cancel"
	ReasonEsc    = "esc"
	ReasonAbort  = "abort"
)

// TransitionEvent is reported to lifecycle hooks after a transition is committed.
type TransitionEvent struct {
	Timestamp time.Time
	TransitionResult
}

// DiscardEvent is reported when a request completes after its handle was released.
// It carries the event that would have been synthesized and the state found, never content.
type DiscardEvent struct {
	Timestamp time.Time
	Event     Event
	State     State
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnDiscard    func(context.Context, *DiscardEvent)
}
