// Package observability provides Prometheus metrics for the application.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all run metrics. A single run is short-lived, so the
// metrics live on a private registry and are gathered into the end-of-run
// summary rather than served over HTTP.
type Metrics struct {
	registry *prometheus.Registry

	// Lecture metrics
	LecturesFinished prometheus.Counter
	LecturesSkipped  prometheus.Counter
	LecturesPlanned  prometheus.Counter
	LecturesFailed   prometheus.Counter
	LectureDuration  prometheus.Histogram

	// Guidebook metrics
	GuidebooksFetched prometheus.Counter
	GuidebooksFailed  prometheus.Counter

	// Downloader metrics
	DownloaderErrors *prometheus.CounterVec
	BytesWritten     prometheus.Counter
}

// New creates and registers all run metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		LecturesFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "lectures",
			Name:      "finished_total",
			Help:      "Total number of lectures downloaded and muxed",
		}),
		LecturesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "lectures",
			Name:      "skipped_total",
			Help:      "Total number of lectures skipped because the file already exists",
		}),
		LecturesPlanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "lectures",
			Name:      "planned_total",
			Help:      "Total number of lectures planned in dry-run mode",
		}),
		LecturesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "lectures",
			Name:      "failed_total",
			Help:      "Total number of lectures that failed",
		}),
		LectureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tgcdl",
			Subsystem: "lectures",
			Name:      "duration_seconds",
			Help:      "Histogram of per-lecture fetch and mux duration in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2700},
		}),

		GuidebooksFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "guidebooks",
			Name:      "fetched_total",
			Help:      "Total number of guidebook PDFs saved",
		}),
		GuidebooksFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "guidebooks",
			Name:      "failed_total",
			Help:      "Total number of guidebook downloads that failed",
		}),

		DownloaderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "downloader",
			Name:      "errors_total",
			Help:      "Total number of download errors",
		}, []string{"error_type"}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tgcdl",
			Subsystem: "downloader",
			Name:      "bytes_written_total",
			Help:      "Total bytes written to finished output files",
		}),
	}
}

// LectureTimer returns a function to record lecture download duration.
func (m *Metrics) LectureTimer() func() {
	start := time.Now()

	return func() {
		m.LectureDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordDownloaderError records a download error by its class.
func (m *Metrics) RecordDownloaderError(errorType string) {
	m.DownloaderErrors.WithLabelValues(errorType).Inc()
}

// Summary gathers every counter into a flat name-to-value map for the
// end-of-run log line.
func (m *Metrics) Summary() map[string]float64 {
	families, err := m.registry.Gather()
	if err != nil {
		return nil
	}

	out := make(map[string]float64)

	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}

		var total float64
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}

		out[family.GetName()] = total
	}

	return out
}
