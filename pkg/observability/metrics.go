package observability

import (
	"context"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts intercepted occurrences.
type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dispatch",
				Name:      "events_total",
				Help:      "Total number of intercepted occurrences",
			},
			[]string{"target", "kind", "operation"},
		),
	}
	if err := reg.Register(m.events); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler returns a handler that increments the counter for each event.
func (m *Metrics) Handler() domain.Handler {
	return func(_ context.Context, ev domain.Event) error {
		m.events.WithLabelValues(ev.TargetName(), ev.Kind().String(), ev.Operation()).Inc()
		return nil
	}
}

// Counter exposes the underlying counter, e.g. for tests.
func (m *Metrics) Counter(target string, kind domain.EventKind, operation string) prometheus.Counter {
	return m.events.WithLabelValues(target, kind.String(), operation)
}
