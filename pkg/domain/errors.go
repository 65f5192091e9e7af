package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned when an event name does not match any Event.
var ErrUnknownEvent = errors.New("unknown event")

// ErrCanceled is returned by a Responder when the request was canceled by its caller.
// It is never treated as a failure.
var ErrCanceled = errors.New("request canceled")

// ErrRequestFailed is matched by every non-cancel failure of an outbound request
// (transport error, timeout, malformed reply or non-success status).
var ErrRequestFailed = errors.New("request failed")

// StatusError reports a non-success upstream status. It carries only the status code.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: status %d", e.Status)
}

// Is lets errors.Is(err, ErrRequestFailed) match a StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// ErrEventDropped is returned by an EventSink that refused an event
// (unknown name, disallowed key or free-text-like value). Nothing was transmitted.
var ErrEventDropped = errors.New("telemetry event dropped")

// ErrEventRejected is returned by convenience APIs when an event has no rule
// for the current state. Dispatch itself never returns it.
var ErrEventRejected = errors.New("event rejected in current state")

// ErrReservedEvent is returned when a caller tries to dispatch RESOLVE or FAIL,
// which only the controller may produce.
var ErrReservedEvent = errors.New("event is reserved for request completion")
