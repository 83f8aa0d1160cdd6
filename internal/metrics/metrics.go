// Package metrics exposes Prometheus collectors for ranking runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names.
const (
	MetricRunsTotal        = "resumerank_runs_total"
	MetricDocumentsTotal   = "resumerank_documents_total"
	MetricRunDuration      = "resumerank_run_duration_seconds"
	MetricSkippedTotal     = "resumerank_skipped_documents_total"
	MetricRetentionDeleted = "resumerank_retention_deleted_runs_total"
)

// Run sources, used as the "source" label.
const (
	SourceRank   = "rank"
	SourceUpload = "upload"
	SourceRerank = "rerank"
	SourceCLI    = "cli"
)

// Run outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the engine's collectors. Methods are safe on a nil receiver
// so callers that run without metrics need no checks.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	documentsTotal   *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	skippedTotal     *prometheus.CounterVec
	retentionDeleted prometheus.Counter
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsTotal,
				Help: "Ranking runs by source and status",
			},
			[]string{"source", "status"},
		),
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDocumentsTotal,
				Help: "Documents scored by source",
			},
			[]string{"source"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Ranking run duration in seconds by source",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"source"},
		),
		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSkippedTotal,
				Help: "Uploaded files skipped before ranking, by reason",
			},
			[]string{"reason"},
		),
		retentionDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRetentionDeleted,
				Help: "Runs removed by the retention sweep",
			},
		),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.documentsTotal,
		m.runDuration,
		m.skippedTotal,
		m.retentionDeleted,
	}
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(source, status string, documents int, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(source, status).Inc()
	if status == StatusSuccess {
		m.documentsTotal.WithLabelValues(source).Add(float64(documents))
		m.runDuration.WithLabelValues(source).Observe(seconds)
	}
}

func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddRetentionDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.retentionDeleted.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
