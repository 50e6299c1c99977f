// Package metrics provides Prometheus metrics for the identification pipeline
// and the history store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	bucketStart10ms = 0.01
	bucketFactor2   = 2
	bucketCount12   = 12
)

// Metrics methods are safe to call on a nil receiver so components can be
// built without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	identifyTotal         *prometheus.CounterVec
	identifyDuration      prometheus.Histogram
	externalCallDuration  *prometheus.HistogramVec
	externalCallErrors    *prometheus.CounterVec
	localizationDegraded  *prometheus.CounterVec
	narrationUnavailable  *prometheus.CounterVec
	historyOperationTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics on registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) initMetrics() {
	m.identifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaflens_identify_requests_total",
			Help: "Identification requests by outcome",
		},
		[]string{"outcome"},
	)

	m.identifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaflens_identify_duration_seconds",
			Help:    "End to end identification pipeline duration",
			Buckets: prometheus.ExponentialBuckets(bucketStart10ms, bucketFactor2, bucketCount12),
		},
	)

	m.externalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaflens_external_call_duration_seconds",
			Help:    "Duration of calls to the classifier, translator and speech backends",
			Buckets: prometheus.ExponentialBuckets(bucketStart10ms, bucketFactor2, bucketCount12),
		},
		[]string{"adapter"},
	)

	m.externalCallErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaflens_external_call_errors_total",
			Help: "Failed calls to external backends",
		},
		[]string{"adapter"},
	)

	m.localizationDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaflens_localization_degraded_total",
			Help: "Localizations that fell back to untranslated text",
		},
		[]string{"scope"}, // scope: string, record
	)

	m.narrationUnavailable = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaflens_narration_unavailable_total",
			Help: "Narrations that produced no audio",
		},
		[]string{"reason"},
	)

	m.historyOperationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaflens_history_operations_total",
			Help: "History store operations by type and status",
		},
		[]string{"operation", "status"},
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.identifyTotal.Describe(ch)
	m.identifyDuration.Describe(ch)
	m.externalCallDuration.Describe(ch)
	m.externalCallErrors.Describe(ch)
	m.localizationDegraded.Describe(ch)
	m.narrationUnavailable.Describe(ch)
	m.historyOperationTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.identifyTotal.Collect(ch)
	m.identifyDuration.Collect(ch)
	m.externalCallDuration.Collect(ch)
	m.externalCallErrors.Collect(ch)
	m.localizationDegraded.Collect(ch)
	m.narrationUnavailable.Collect(ch)
	m.historyOperationTotal.Collect(ch)
}

func (m *Metrics) RecordIdentify(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.identifyTotal.WithLabelValues(outcome).Inc()
	m.identifyDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordExternalCall(adapter string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.externalCallDuration.WithLabelValues(adapter).Observe(d.Seconds())
	if err != nil {
		m.externalCallErrors.WithLabelValues(adapter).Inc()
	}
}

func (m *Metrics) RecordLocalizationDegraded(scope string) {
	if m == nil {
		return
	}
	m.localizationDegraded.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordNarrationUnavailable(reason string) {
	if m == nil {
		return
	}
	m.narrationUnavailable.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordHistoryOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.historyOperationTotal.WithLabelValues(operation, status).Inc()
}
