package domain

// Rule is a single allowed edge of the conversation state machine.
type Rule struct {
	From  State  `json:"from" yaml:"from"`
	Event Event  `json:"event" yaml:"event"`
	To    State  `json:"to" yaml:"to"`
	Note  string `json:"note,omitempty" yaml:"note,omitempty"`
}

// TransitionResult describes an accepted transition.
type TransitionResult struct {
	To    State `json:"state"`
	From  State `json:"previous_state"`
	Event Event `json:"event"`
}

// rules is fixed at process start and never mutated.
var rules = []Rule{
	{From: StateIdle, Event: EventBegin, To: StateListening, Note: "Opens compose"},
	{From: StateListening, Event: EventSubmit, To: StateThinking, Note: "Request starts"},
	{From: StateListening, Event: EventCancel, To: StateCanceled, Note: "Nothing saved"},
	{From: StateThinking, Event: EventResolve, To: StateSpeaking, Note: "Render response"},
	{From: StateThinking, Event: EventFail, To: StateError, Note: "Safe error copy"},
	{From: StateThinking, Event: EventCancel, To: StateCanceled, Note: "Abort request"},
	{From: StateSpeaking, Event: EventContinue, To: StateListening, Note: "New input"},
	{From: StateSpeaking, Event: EventReplay, To: StateSpeaking, Note: "No API call"},
	{From: StateError, Event: EventBack, To: StateIdle},
	{From: StateCanceled, Event: EventBack, To: StateIdle},
}

// Transition evaluates ev against the current state.
// A missing rule is a normal outcome and is reported with ok == false.
func Transition(current State, ev Event) (TransitionResult, bool) {
	for _, r := range rules {
		if r.From == current && r.Event == ev {
			return TransitionResult{To: r.To, From: current, Event: ev}, true
		}
	}
	return TransitionResult{}, false
}

// CanTransition reports whether ev is legal from current.
func CanTransition(current State, ev Event) bool {
	_, ok := Transition(current, ev)
	return ok
}

// ValidEvents returns the events accepted from state, in table order.
func ValidEvents(state State) []Event {
	var events []Event
	for _, r := range rules {
		if r.From == state {
			events = append(events, r.Event)
		}
	}
	return events
}

// Rules returns a copy of the transition table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
