// Package metrics exposes Prometheus collectors for URL scans.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// Metrics groups the scan collectors. The zero value is not usable; call
// New.
type Metrics struct {
	Registry   *prometheus.Registry
	Scans      *prometheus.CounterVec
	SignalHits *prometheus.CounterVec
	Scores     prometheus.Histogram
	CacheHits  prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "scans_total",
			Help:      "URL scans by verdict.",
		}, []string{"verdict"}),
		SignalHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "signal_hits_total",
			Help:      "Triggered signals by name.",
		}, []string{"signal"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "urlguard",
			Name:      "score",
			Help:      "Distribution of risk scores.",
			Buckets:   []float64{20, 40, 60, 80, 100},
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "cache_hits_total",
			Help:      "Scans answered from the result cache.",
		}),
	}

	m.Registry.MustRegister(
		m.Scans,
		m.SignalHits,
		m.Scores,
		m.CacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one scan result.
func (m *Metrics) Observe(r models.ScoreResult, cached bool) {
	if cached {
		m.CacheHits.Inc()
	}
	m.Scans.WithLabelValues(r.Verdict.String()).Inc()
	m.Scores.Observe(float64(r.Score))
	for _, name := range r.TriggeredSignals {
		m.SignalHits.WithLabelValues(name).Inc()
	}
}
