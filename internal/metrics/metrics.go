// Package metrics exposes Prometheus instrumentation for the call
// engine. Counters are wired into the orchestrator through lifecycle
// hooks; dial failures are counted at the session boundary.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/coldline/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	CallsStarted prometheus.Counter
	CallsEnded   *prometheus.CounterVec
	Transitions  *prometheus.CounterVec
	DialFailures prometheus.Counter
	CallDuration prometheus.Histogram
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coldline_calls_started_total",
			Help: "Outbound call sessions started.",
		}),
		CallsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldline_calls_ended_total",
			Help: "Call sessions ended, by outcome.",
		}, []string{"outcome"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coldline_transitions_total",
			Help: "Phase transitions fired, by phase and transition.",
		}, []string{"phase", "transition"}),
		DialFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "coldline_dial_failures_total",
			Help: "Dial attempts rejected or never answered.",
		}),
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "coldline_call_duration_seconds",
			Help:    "Duration of ended call sessions.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 9),
		}),
	}
}

// Hooks returns lifecycle hooks that record transition and call-end
// metrics. Merge them with any user hooks before wiring the session.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, ev *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(ev.Phase), string(ev.Name)).Inc()
		},
		OnCallEnded: func(_ context.Context, ev *domain.CallEndedEvent) {
			m.CallsEnded.WithLabelValues(string(ev.Outcome)).Inc()
			m.CallDuration.Observe(ev.Duration.Seconds())
		},
	}
}
