// Package metrics exports simulation activity to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gyaneshwarpardhi/dssim/internal/event"
	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	Taps            *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	ActiveRuns      prometheus.Gauge
	RunVirtualTime  prometheus.Histogram
	RunEvents       prometheus.Histogram
	DiscoveredNodes prometheus.Gauge
	CalculatedEdges prometheus.Gauge
	VirtualTime     prometheus.Gauge
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Taps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dssim_taps_total",
			Help: "Total number of monitoring taps published, labelled by kind.",
		}, []string{"kind"}),

		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dssim_runs_total",
			Help: "Total number of finished runs, labelled by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),

		ActiveRuns: f.NewGauge(prometheus.GaugeOpts{
			Name: "dssim_active_runs",
			Help: "Number of runs currently in progress.",
		}),

		RunVirtualTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dssim_run_virtual_time",
			Help:    "Virtual clock value at the end of a run.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),

		RunEvents: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dssim_run_events",
			Help:    "Engine events processed per run.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		}),

		DiscoveredNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "dssim_discovered_nodes",
			Help: "Node discoveries recorded by the current or last run.",
		}),

		CalculatedEdges: f.NewGauge(prometheus.GaugeOpts{
			Name: "dssim_calculated_edges",
			Help: "Edges completed by the current or last run.",
		}),

		VirtualTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "dssim_virtual_time",
			Help: "Virtual clock of the current or last run.",
		}),
	}
}

// Instrument feeds m from d's taps and signals. The returned func removes
// the tap subscription; signal handlers stay registered.
func (m *Metrics) Instrument(d *simulation.Driver) (detach func()) {
	d.On(simulation.SignalStart, func(simulation.Notice) {
		m.ActiveRuns.Inc()
		m.DiscoveredNodes.Set(0)
		m.CalculatedEdges.Set(0)
		m.VirtualTime.Set(0)
	})
	done := func(n simulation.Notice) {
		m.ActiveRuns.Dec()
		if n.Result == nil {
			return
		}
		m.Runs.WithLabelValues(n.Result.Algorithm, string(n.Result.Outcome)).Inc()
		m.RunVirtualTime.Observe(n.Result.EndTime)
		m.RunEvents.Observe(float64(n.Result.Events))
	}
	d.On(simulation.SignalEnd, done)
	d.On(simulation.SignalStop, done)
	d.On(simulation.SignalInterrupt, done)

	return d.Bus().Subscribe(func(ev event.Event) {
		m.Taps.WithLabelValues(string(ev.Kind)).Inc()
		switch ev.Kind {
		case event.NodeDiscovered:
			m.DiscoveredNodes.Inc()
		case event.EdgeCalculated:
			m.CalculatedEdges.Inc()
		case event.Tick:
			m.VirtualTime.Set(ev.Time)
		}
	})
}
