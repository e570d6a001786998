// Package metrics exposes extraction counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated by the pipeline and run service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	hitsProcessed  prometheus.Counter
	recordsEmitted prometheus.Counter
	hitDuration    prometheus.Histogram
	runs           *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hitsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twinion_hits_processed_total",
			Help: "Total number of hits extracted",
		}),
		recordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twinion_records_emitted_total",
			Help: "Total number of extraction records written",
		}),
		hitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "twinion_hit_extraction_seconds",
			Help:    "Time spent extracting and writing one hit",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
		}),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twinion_runs_total",
				Help: "Total number of runs by final status",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.hitsProcessed, m.recordsEmitted, m.hitDuration, m.runs)
	return m
}

// ObserveHit records one processed hit.
func (m *Metrics) ObserveHit(records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.hitsProcessed.Inc()
	m.recordsEmitted.Add(float64(records))
	m.hitDuration.Observe(elapsed.Seconds())
}

// RunFinished counts a run ending in status.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}
