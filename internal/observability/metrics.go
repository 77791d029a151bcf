// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Insight metrics
	InsightsGenerated prometheus.Counter
	EligibleInsights  *prometheus.CounterVec
	WindowsSkipped    *prometheus.CounterVec

	// Backtest metrics
	ConfigsTested     prometheus.Counter
	BacktestFallbacks prometheus.Counter

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Output metrics
	DocumentsWritten *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "itbi_insight_lab"
	}

	return &Metrics{
		InsightsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insight",
			Name:      "rows_generated_total",
			Help:      "Total number of scored insight rows generated",
		}),
		EligibleInsights: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insight",
			Name:      "eligible_rows_total",
			Help:      "Total number of eligible insight rows by score type",
		}, []string{"score"}),
		WindowsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insight",
			Name:      "windows_skipped_total",
			Help:      "Total number of (level, window) combinations skipped for lack of data",
		}, []string{"level"}),
		ConfigsTested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "configs_tested_total",
			Help:      "Total number of grid configurations evaluated",
		}),
		BacktestFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "constraint_fallbacks_total",
			Help:      "Total number of runs where no configuration met the selection constraints",
		}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of runs by phase and status",
		}, []string{"phase", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Run duration in seconds by phase",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		DocumentsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "documents_written_total",
			Help:      "Total number of output documents written by kind",
		}, []string{"document"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordInsights records generated and eligible row counts.
func RecordInsights(total, eligibleValorization, eligibleGem int) {
	DefaultMetrics.InsightsGenerated.Add(float64(total))
	DefaultMetrics.EligibleInsights.WithLabelValues("valorization").Add(float64(eligibleValorization))
	DefaultMetrics.EligibleInsights.WithLabelValues("gem").Add(float64(eligibleGem))
}

// RecordWindowSkipped records a (level, window) combination that
// produced no rows.
func RecordWindowSkipped(level string) {
	DefaultMetrics.WindowsSkipped.WithLabelValues(level).Inc()
}

// RecordConfigTested increments the evaluated configuration counter.
func RecordConfigTested() {
	DefaultMetrics.ConfigsTested.Inc()
}

// RecordBacktestFallback records a run where constraint filtering left
// no candidates.
func RecordBacktestFallback() {
	DefaultMetrics.BacktestFallbacks.Inc()
}

// RecordRun records a run by phase and status with its duration.
func RecordRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordDocumentWritten records one written output document.
func RecordDocumentWritten(document string) {
	DefaultMetrics.DocumentsWritten.WithLabelValues(document).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
