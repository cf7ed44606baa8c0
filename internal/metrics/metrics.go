// Package metrics exposes Prometheus instrumentation for the dialogue
// engine and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcomes reported to TurnsTotal.
const (
	OutcomeAsked     = "asked"
	OutcomeConfirmed = "confirmed"
	OutcomeClarified = "clarified"
	OutcomeDuplicate = "duplicate"
	OutcomeReady     = "ready"
	OutcomeError     = "error"
)

// Metrics holds the collectors for one engine instance.
type Metrics struct {
	TurnsTotal    *prometheus.CounterVec
	SlotsLocked   prometheus.Counter
	Recoveries    *prometheus.CounterVec
	TurnDuration  prometheus.Histogram
	Conversations prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil registerer
// leaves them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyago",
			Name:      "turns_total",
			Help:      "Processed turns by outcome.",
		}, []string{"outcome"}),
		SlotsLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voyago",
			Name:      "slots_locked_total",
			Help:      "Slots confirmed and locked.",
		}),
		Recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voyago",
			Name:      "recoveries_total",
			Help:      "Conversation recoveries by last action.",
		}, []string{"action"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voyago",
			Name:      "turn_duration_seconds",
			Help:      "Wall time spent processing a turn, including the snapshot write.",
			Buckets:   prometheus.DefBuckets,
		}),
		Conversations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voyago",
			Name:      "active_conversations",
			Help:      "Conversations currently known to the store.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TurnsTotal, m.SlotsLocked, m.Recoveries, m.TurnDuration, m.Conversations)
	}
	return m
}
