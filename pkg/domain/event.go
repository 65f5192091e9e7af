package domain

import (
	"fmt"
	"strings"
)

// Event is an input to the state machine. Events are transient and never stored.
type Event string

const (
	EventBegin    Event = "BEGIN"
	EventSubmit   Event = "SUBMIT"
	EventResolve  Event = "RESOLVE"
	EventFail     Event = "FAIL"
	EventCancel   Event = "CANCEL"
	EventBack     Event = "BACK"
	EventContinue Event = "CONTINUE"
	EventReplay   Event = "REPLAY"
)

// Events lists every event in declaration order.
var Events = []Event{
	EventBegin,
	EventSubmit,
	EventResolve,
	EventFail,
	EventCancel,
	EventBack,
	EventContinue,
	EventReplay,
}

// UserEvents lists the events a caller may dispatch. RESOLVE and FAIL are
// produced only by the controller when a request completes.
var UserEvents = []Event{
	EventBegin,
	EventSubmit,
	EventCancel,
	EventBack,
	EventContinue,
	EventReplay,
}

// Synthesized reports whether e is reserved for request completion.
func (e Event) Synthesized() bool {
	return e == EventResolve || e == EventFail
}

// Valid reports whether e is one of the known events.
func (e Event) Valid() bool {
	for _, known := range Events {
		if e == known {
			return true
		}
	}
	return false
}

func (e Event) String() string {
	return string(e)
}

// ParseEvent converts a case-insensitive name into an Event.
func ParseEvent(name string) (Event, error) {
	e := Event(strings.ToUpper(strings.TrimSpace(name)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return e, nil
}
