package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts proxied statements by classified type and outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryproxy_queries_total",
		Help: "Total number of proxied SQL statements",
	}, []string{"type", "status"})

	// QueryDuration tracks end-to-end execution time including pool setup.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "queryproxy_query_duration_seconds",
		Help:    "Histogram of statement execution duration",
		Buckets: prometheus.DefBuckets,
	})

	// AnalysisTotal counts detached analysis outcomes.
	AnalysisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryproxy_analysis_total",
		Help: "Total number of detached analysis runs by outcome",
	}, []string{"outcome"})

	// PoolFailures counts tenant pools that failed the liveness ping.
	PoolFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queryproxy_tenant_pool_failures_total",
		Help: "Total number of tenant connection pools that failed to open",
	})
)
