// Package prometheus implements the metrics interfaces on the Prometheus
// client. Import it for side effects:
//
//	import _ "github.com/openaria/ariad/pkg/metrics/prometheus"
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openaria/ariad/pkg/metrics"
)

func init() {
	metrics.RegisterIngestMetricsConstructor(newIngestMetrics)
}

// ingestMetrics is the Prometheus implementation of metrics.IngestMetrics.
type ingestMetrics struct {
	uploads        *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	measurements   *prometheus.CounterVec
	flags          *prometheus.CounterVec
}

func newIngestMetrics() metrics.IngestMetrics {
	reg := metrics.GetRegistry()

	return &ingestMetrics{
		uploads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ariad_uploads_total",
				Help: "Total scale uploads by outcome",
			},
			[]string{"outcome"}, // "ok", "decode_error", "store_error"
		),
		uploadDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ariad_upload_duration_seconds",
				Help:    "Upload processing time including the ingest transaction",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"outcome"},
		),
		measurements: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ariad_measurements_total",
				Help: "Measurements seen in uploads by disposition",
			},
			[]string{"disposition"}, // "inserted", "duplicate", "conflict", "skipped"
		),
		flags: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ariad_upload_flags_total",
				Help: "Wire-level anomaly flags raised during ingestion",
			},
			[]string{"flag"},
		),
	}
}

func (m *ingestMetrics) RecordUpload(outcome string, duration time.Duration) {
	m.uploads.WithLabelValues(outcome).Inc()
	m.uploadDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *ingestMetrics) RecordMeasurements(inserted, duplicate, conflict, skipped int) {
	m.measurements.WithLabelValues("inserted").Add(float64(inserted))
	m.measurements.WithLabelValues("duplicate").Add(float64(duplicate))
	m.measurements.WithLabelValues("conflict").Add(float64(conflict))
	m.measurements.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *ingestMetrics) RecordFlag(flag string) {
	m.flags.WithLabelValues(flag).Inc()
}
