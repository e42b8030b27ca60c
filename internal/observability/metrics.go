package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	CapabilityTranslate = "translate"
	CapabilityExplain   = "explain"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askql_turns_total",
			Help: "Total number of conversation turns by result.",
		},
		[]string{"result"},
	)
	capabilityCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askql_capability_calls_total",
			Help: "Total number of text-generation calls by capability and status.",
		},
		[]string{"capability", "status"},
	)
	capabilityLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askql_capability_latency_seconds",
			Help:    "Text-generation call latency by capability.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"capability"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askql_query_duration_seconds",
			Help:    "Statement execution latency against the relational engine.",
			Buckets: prometheus.DefBuckets,
		},
	)
	queryRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askql_query_rows",
			Help:    "Rows returned per executed statement.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
		},
	)
	forbiddenStatementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askql_forbidden_statements_total",
			Help: "Total number of generated statements rejected by the read-only guard.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		turnsTotal,
		capabilityCallsTotal,
		capabilityLatencySeconds,
		queryDurationSeconds,
		queryRows,
		forbiddenStatementsTotal,
	)
}

func ObserveTurn(result string) {
	turnsTotal.WithLabelValues(result).Inc()
}

func ObserveCapabilityCall(capability string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	capabilityCallsTotal.WithLabelValues(capability, status).Inc()
	capabilityLatencySeconds.WithLabelValues(capability).Observe(elapsed.Seconds())
}

func ObserveQuery(rows int, elapsed time.Duration) {
	if rows < 0 {
		rows = 0
	}
	queryRows.Observe(float64(rows))
	queryDurationSeconds.Observe(elapsed.Seconds())
}

func IncrementForbiddenStatement() {
	forbiddenStatementsTotal.Inc()
}
