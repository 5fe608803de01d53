package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// Metrics holds the Prometheus instruments for the audit engine.
type Metrics struct {
	RunsStarted prometheus.Counter
	RunsFailed  prometheus.Counter
	RunDuration prometheus.Histogram
	IssuesFound *prometheus.CounterVec
}

// New creates and registers all audit metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sql_sentry_runs_started_total",
			Help: "Total number of audit runs started",
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sql_sentry_runs_failed_total",
			Help: "Total number of audit runs aborted before completion",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sql_sentry_run_duration_seconds",
			Help:    "Wall-clock duration of audit runs",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		IssuesFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sql_sentry_issues_found_total",
			Help: "Issues emitted by completed audit runs, by severity",
		}, []string{"severity"}),
	}
}

func (m *Metrics) IncRunsStarted() {
	m.RunsStarted.Inc()
}

func (m *Metrics) IncRunsFailed() {
	m.RunsFailed.Inc()
}

// ObserveRun records the duration and per-severity issue counts of one run.
func (m *Metrics) ObserveRun(elapsed time.Duration, summary domain.Summary) {
	m.RunDuration.Observe(elapsed.Seconds())
	for sev, n := range summary.Counts() {
		m.IssuesFound.WithLabelValues(sev.String()).Add(float64(n))
	}
}
