package telemetry

import (
	"context"

	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts accepted telemetry and controller lifecycle events.
// It is both a ports.Publisher and a source of domain.LifecycleHooks.
type Metrics struct {
	Events      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Discarded   prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg (if non-nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emberly_events_total",
				Help: "Telemetry events accepted by the sink",
			},
			[]string{"name"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emberly_transitions_total",
				Help: "Committed conversation state transitions",
			},
			[]string{"from", "to", "event"},
		),
		Discarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "emberly_discarded_results_total",
				Help: "Request completions discarded because their handle was released",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Events, m.Transitions, m.Discarded)
	}
	return m
}

// Publish implements ports.Publisher.
func (m *Metrics) Publish(_ context.Context, rec ports.Record) error {
	m.Events.WithLabelValues(string(rec.Name)).Inc()
	return nil
}

// Hooks returns lifecycle hooks feeding the transition and discard counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To), string(e.Event)).Inc()
		},
		OnDiscard: func(_ context.Context, _ *domain.DiscardEvent) {
			m.Discarded.Inc()
		},
	}
}
