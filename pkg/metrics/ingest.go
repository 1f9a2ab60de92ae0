package metrics

import "time"

// IngestMetrics provides observability for the upload ingestion path.
//
// This interface is optional: a nil value disables collection with zero
// overhead, so the pipeline never branches on configuration.
type IngestMetrics interface {
	// RecordUpload records a completed upload request with its outcome
	// ("ok", "decode_error", "store_error") and processing duration.
	RecordUpload(outcome string, duration time.Duration)

	// RecordMeasurements records how many measurements of an upload were
	// inserted, deduplicated, conflicting, or skipped by validation.
	RecordMeasurements(inserted, duplicate, conflict, skipped int)

	// RecordFlag records one wire-level anomaly flag (crc_mismatch,
	// weight_out_of_range, ...).
	RecordFlag(flag string)
}

// NewIngestMetrics creates a Prometheus-backed IngestMetrics instance.
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewIngestMetrics() IngestMetrics {
	if !IsEnabled() || newPrometheusIngestMetrics == nil {
		return nil
	}
	return newPrometheusIngestMetrics()
}

// newPrometheusIngestMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle between the interface package and
// the implementation.
var newPrometheusIngestMetrics func() IngestMetrics

// RegisterIngestMetricsConstructor registers the Prometheus constructor.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterIngestMetricsConstructor(constructor func() IngestMetrics) {
	newPrometheusIngestMetrics = constructor
}
