package metrics

import "github.com/prometheus/client_golang/prometheus"

// Feedback pipeline Prometheus metrics.
var (
	FeedbackRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relfeed",
			Name:      "feedback_requests_total",
			Help:      "Total number of feedback requests",
		},
		[]string{"parser", "status"},
	)

	SeedSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "relfeed",
			Name:      "seed_search_duration_seconds",
			Help:      "Seed query execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ExpansionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "relfeed",
			Name:      "expansion_duration_seconds",
			Help:      "Term mining and expanded-query execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	EmptySeedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "relfeed",
			Name:      "empty_seed_total",
			Help:      "Feedback requests whose seed query matched no documents",
		},
	)

	ExpansionTermsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "relfeed",
			Name:      "expansion_terms_count",
			Help:      "Number of terms in the expanded query",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus feedback pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(FeedbackRequestsTotal)
	prometheus.MustRegister(SeedSearchDuration)
	prometheus.MustRegister(ExpansionDuration)
	prometheus.MustRegister(EmptySeedTotal)
	prometheus.MustRegister(ExpansionTermsCount)
	pipelineMetricsRegistered = true
}
