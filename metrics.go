package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are kept in a private registry and written once, when the command ends.
type metrics struct {
	reg          *prometheus.Registry
	loads        *prometheus.CounterVec
	loadDuration prometheus.Histogram
	queries      *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &metrics{
		reg: reg,
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wmibo_instances_loaded_total",
			Help: "Number of instances read, by result.",
		}, []string{"result"}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wmibo_load_duration_seconds",
			Help:    "Time spent reading and validating instances.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wmibo_queries_total",
			Help: "Number of queries answered, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func (m *metrics) loaded(result string, d time.Duration) {
	m.loads.WithLabelValues(result).Inc()
	m.loadDuration.Observe(d.Seconds())
}

func (m *metrics) answered(kind, outcome string) {
	m.queries.WithLabelValues(kind, outcome).Inc()
}

func (m *metrics) write(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
