package conversation

import "github.com/aretw0/emberly/pkg/domain"

// Snapshot is the view a UI renders from.
type Snapshot struct {
	State    domain.State `json:"state"`
	Draft    string       `json:"draft,omitempty"`
	Response string       `json:"response,omitempty"`
	Error    string       `json:"error,omitempty"`
	// InFlight reports whether a request handle is held.
	InFlight bool `json:"in_flight"`
}

// Settled reports whether no request is pending.
func (s Snapshot) Settled() bool {
	return s.State != domain.StateThinking || !s.InFlight
}
