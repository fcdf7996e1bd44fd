// Package metrics provides Prometheus instrumentation for colpir. It covers
// the three ingestion passes and the protocol phases of a PIR session.
//
// # Overview
//
// The metrics package provides:
//   - Pre-defined metrics for ingestion and protocol phases
//   - A Timer for phase latency
//   - A textfile writer so that one-shot CLI runs can export what they saw
//
// # Basic Usage
//
//	// Record a scanned row
//	metrics.RowsScanned.WithLabelValues("csv", "validate").Inc()
//
//	// Track phase latency
//	timer := metrics.NewTimer("answer")
//	ans := engine.Answer(ct, packed)
//	timer.ObserveDuration()
//
//	// Export on exit
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/colpir.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsScanned tracks rows read from a source.
	// Labels: format (csv/parquet), pass (count/validate/load)
	//
	// Example:
	//	metrics.RowsScanned.WithLabelValues("parquet", "load").Add(4096)
	RowsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colpir_rows_scanned_total",
			Help: "Total number of rows scanned from sources",
		},
		[]string{"format", "pass"},
	)

	// LoadAnomalies tracks cells the loader had to repair.
	// Labels: kind (clamped/unparsable/absent/negative/short)
	LoadAnomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colpir_load_anomalies_total",
			Help: "Total number of cells clamped or zeroed during load",
		},
		[]string{"kind"},
	)

	// ValidationFailures tracks sources rejected by the column validator.
	// Labels: format, reason
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colpir_validation_failures_total",
			Help: "Total number of sources rejected during validation",
		},
		[]string{"format", "reason"},
	)

	// PhaseLatency tracks the wall-clock duration of ingestion passes and
	// protocol phases in seconds.
	// Labels: phase (count/validate/load/init/pack/hint/commit/query/answer/prove/verify/recover)
	PhaseLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "colpir_phase_duration_seconds",
			Help: "Duration of ingestion passes and protocol phases in seconds",
			Buckets: []float64{
				1e-6, // 1μs - bounds checks, recovery of a single entry
				1e-5, // 10μs
				1e-4, // 100μs - query generation on small databases
				1e-3, // 1ms
				1e-2, // 10ms - answer on medium databases
				1e-1, // 100ms
				1,    // 1s - hint generation, full load
				10,   // 10s - large databases
			},
		},
		[]string{"phase"},
	)

	// ArtifactBytes tracks the size of protocol artifacts of the last session.
	// Labels: artifact (matrix_a/packed_db/hint/query/answer/proof)
	ArtifactBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "colpir_artifact_bytes",
			Help: "Size in bytes of protocol artifacts",
		},
		[]string{"artifact"},
	)

	// DatabaseEntries tracks N of the last loaded database.
	DatabaseEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colpir_database_entries",
			Help: "Number of entries in the loaded database",
		},
	)

	// SessionOutcomes tracks how sessions ended.
	// Labels: outcome (match/mismatch/verification_failed/error)
	SessionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colpir_session_outcomes_total",
			Help: "Total number of completed sessions by outcome",
		},
		[]string{"outcome"},
	)
)

// Timer measures one phase and reports it to PhaseLatency.
type Timer struct {
	start time.Time
	phase string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(phase string) *Timer {
	return &Timer{
		start: time.Now(),
		phase: phase,
	}
}

// Stop returns the elapsed duration since creation without recording it.
// The timer can be stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in PhaseLatency and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	PhaseLatency.WithLabelValues(t.phase).Observe(d.Seconds())
	return d
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, for collection by a node exporter textfile
// collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
