package domain

// State is the position of a conversation in its lifecycle.
type State string

const (
	StateIdle      State = "idle"      // Nothing open
	StateListening State = "listening" // Composing a draft
	StateThinking  State = "thinking"  // Request in flight
	StateSpeaking  State = "speaking"  // Response available
	StateError     State = "error"     // Request failed
	StateCanceled  State = "canceled"  // User or system abort
)

// States lists every state in declaration order.
var States = []State{
	StateIdle,
	StateListening,
	StateThinking,
	StateSpeaking,
	StateError,
	StateCanceled,
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}
