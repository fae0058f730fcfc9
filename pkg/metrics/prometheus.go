// Package metrics provides Prometheus metrics for the seqprep pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the preprocessing pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingestion Metrics - Input volume per table
	rowsRead *prometheus.CounterVec

	// Fitting Metrics - Per-column outcomes
	columnsFit     prometheus.Counter
	columnsDropped prometheus.Counter
	fitErrors      prometheus.Counter
	vocabularySize *prometheus.GaugeVec

	// Pipeline Metrics - Stage performance
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec

	// Output Metrics - Split and batch scale
	splitSubjects   *prometheus.GaugeVec
	subjectsEncoded *prometheus.CounterVec
	eventsEncoded   prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "seqprep",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsRead = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_read_total",
			Help:      "Total number of input rows read per table",
		},
		[]string{"table"},
	)

	m.columnsFit = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "columns_fit_total",
		Help:      "Total number of measurement columns fit successfully",
	})

	m.columnsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "columns_dropped_total",
		Help:      "Total number of measurement columns dropped during fitting",
	})

	m.fitErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_errors_total",
		Help:      "Total number of per-column fitting failures",
	})

	m.vocabularySize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "vocabulary_size",
			Help:      "Learned vocabulary size per measurement, UNK included",
		},
		[]string{"measurement"},
	)

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"stage"},
	)

	m.stageErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_errors_total",
			Help:      "Total number of pipeline stage failures",
		},
		[]string{"stage"},
	)

	m.splitSubjects = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "split_subjects",
			Help:      "Number of subjects assigned to each split",
		},
		[]string{"split"},
	)

	m.subjectsEncoded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "subjects_encoded_total",
			Help:      "Total number of subjects encoded into batches per split",
		},
		[]string{"split"},
	)

	m.eventsEncoded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_encoded_total",
		Help:      "Total number of events encoded into batches",
	})
}

// Manager methods.

// RecordRowsRead adds to the per-table input row counter.
func (m *Manager) RecordRowsRead(tbl string, n int) {
	if m.enabled {
		m.rowsRead.WithLabelValues(tbl).Add(float64(n))
	}
}

// RecordColumnFit increments the fitted-columns counter.
func (m *Manager) RecordColumnFit() {
	if m.enabled {
		m.columnsFit.Inc()
	}
}

// RecordColumnDropped increments the dropped-columns counter.
func (m *Manager) RecordColumnDropped() {
	if m.enabled {
		m.columnsDropped.Inc()
	}
}

// RecordFitError increments the per-column fit failure counter.
func (m *Manager) RecordFitError() {
	if m.enabled {
		m.fitErrors.Inc()
	}
}

// SetVocabularySize sets the learned vocabulary size of a measurement.
func (m *Manager) SetVocabularySize(measurement string, size int) {
	if m.enabled {
		m.vocabularySize.WithLabelValues(measurement).Set(float64(size))
	}
}

// ObserveStageDuration records the duration of one pipeline stage.
func (m *Manager) ObserveStageDuration(stage string, d time.Duration) {
	if m.enabled {
		m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// RecordStageError increments the failure counter of one pipeline stage.
func (m *Manager) RecordStageError(stage string) {
	if m.enabled {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// SetSplitSubjects sets the subject count of a split.
func (m *Manager) SetSplitSubjects(split string, n int) {
	if m.enabled {
		m.splitSubjects.WithLabelValues(split).Set(float64(n))
	}
}

// RecordSubjectsEncoded adds to the per-split encoded-subject counter.
func (m *Manager) RecordSubjectsEncoded(split string, n int) {
	if m.enabled {
		m.subjectsEncoded.WithLabelValues(split).Add(float64(n))
	}
}

// RecordEventsEncoded adds to the encoded-event counter.
func (m *Manager) RecordEventsEncoded(n int) {
	if m.enabled {
		m.eventsEncoded.Add(float64(n))
	}
}

// Registry returns the registry backing the global manager, for exposing
// via an HTTP handler.
func Registry() *prometheus.Registry { return customRegistry }

// Package-level helpers backed by the global manager.

// RecordRowsRead adds to the per-table input row counter.
func RecordRowsRead(tbl string, n int) { globalManager.RecordRowsRead(tbl, n) }

// RecordColumnFit increments the fitted-columns counter.
func RecordColumnFit() { globalManager.RecordColumnFit() }

// RecordColumnDropped increments the dropped-columns counter.
func RecordColumnDropped() { globalManager.RecordColumnDropped() }

// RecordFitError increments the per-column fit failure counter.
func RecordFitError() { globalManager.RecordFitError() }

// SetVocabularySize sets the learned vocabulary size of a measurement.
func SetVocabularySize(measurement string, size int) {
	globalManager.SetVocabularySize(measurement, size)
}

// ObserveStageDuration records the duration of one pipeline stage.
func ObserveStageDuration(stage string, d time.Duration) {
	globalManager.ObserveStageDuration(stage, d)
}

// RecordStageError increments the failure counter of one pipeline stage.
func RecordStageError(stage string) { globalManager.RecordStageError(stage) }

// SetSplitSubjects sets the subject count of a split.
func SetSplitSubjects(split string, n int) { globalManager.SetSplitSubjects(split, n) }

// RecordSubjectsEncoded adds to the per-split encoded-subject counter.
func RecordSubjectsEncoded(split string, n int) {
	globalManager.RecordSubjectsEncoded(split, n)
}

// RecordEventsEncoded adds to the encoded-event counter.
func RecordEventsEncoded(n int) { globalManager.RecordEventsEncoded(n) }
