// Package telemetry exports simulation progress as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/history"
)

const namespace = "worldsim"

// Metrics observes simulated years. Register it with engine.WithObserver.
type Metrics struct {
	Year         prometheus.Gauge
	Living       prometheus.Gauge
	Sites        prometheus.Gauge
	OngoingPlots prometheus.Gauge
	Events       *prometheus.CounterVec
	YearSeconds  prometheus.Histogram
}

var _ engine.Observer = (*Metrics)(nil)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Year: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "year",
			Help: "Last simulated year.",
		}),
		Living: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "living_creatures",
			Help: "Creatures alive at the end of the last year.",
		}),
		Sites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sites",
			Help: "Sites founded so far, abandoned ones included.",
		}),
		OngoingPlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ongoing_plots",
			Help: "Plots not yet resolved.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_total",
			Help: "World events recorded, by kind.",
		}, []string{"kind"}),
		YearSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "year_duration_seconds",
			Help:    "Wall time spent simulating one year.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.Year, m.Living, m.Sites, m.OngoingPlots, m.Events, m.YearSeconds)

	// Expose every kind from the start, even at zero.
	for _, k := range history.EventKinds {
		m.Events.WithLabelValues(string(k))
	}
	return m
}

// ObserveYear implements engine.Observer.
func (m *Metrics) ObserveYear(_ *engine.World, s engine.YearSummary, elapsed time.Duration) {
	m.Year.Set(float64(s.Year))
	m.Living.Set(float64(s.Living))
	m.Sites.Set(float64(s.Sites))
	m.OngoingPlots.Set(float64(s.OngoingPlots))
	for kind, n := range s.Events {
		m.Events.WithLabelValues(string(kind)).Add(float64(n))
	}
	m.YearSeconds.Observe(elapsed.Seconds())
}
