// Package metrics exposes batch detection counters in Prometheus format.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the batch driver's counters. The zero value is not usable; call
// New.
type Metrics struct {
	FilesProcessed atomic.Uint64
	FilesFailed    atomic.Uint64
	BoxesFound     atomic.Uint64
	Busy           atomic.Int64 // workers currently inside a detection

	duration prometheus.Histogram
	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectro_roi_file_duration_seconds",
			Help:    "Time spent detecting regions in one spectrogram",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "spectro_roi_files_processed_total",
			Help: "Total spectrogram files processed",
		},
		func() float64 { return float64(m.FilesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "spectro_roi_files_failed_total",
			Help: "Total spectrogram files that could not be decoded",
		},
		func() float64 { return float64(m.FilesFailed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "spectro_roi_boxes_found_total",
			Help: "Total regions of interest returned",
		},
		func() float64 { return float64(m.BoxesFound.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "spectro_roi_workers_busy",
			Help: "Workers currently running a detection",
		},
		func() float64 { return float64(m.Busy.Load()) },
	))

	m.registry.MustRegister(m.duration)
}

// ObserveFile records one finished file.
func (m *Metrics) ObserveFile(d time.Duration, boxes int, ok bool) {
	if !ok {
		m.FilesFailed.Add(1)
		return
	}
	m.FilesProcessed.Add(1)
	m.BoxesFound.Add(uint64(boxes))
	m.duration.Observe(d.Seconds())
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr until the listener fails.
func (m *Metrics) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
