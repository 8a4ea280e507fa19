package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	evaluationsTotal   *prometheus.CounterVec
	evaluationSeconds  *prometheus.HistogramVec
	testCasesTotal     *prometheus.CounterVec
	batchStudentsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API and the
// evaluation engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examhub_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_evaluations_total",
			Help: "Total number of submission evaluations by mode and result.",
		}, []string{"mode", "result"})

		evaluationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examhub_evaluation_duration_seconds",
			Help:    "Wall-clock duration of submission evaluations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"mode"})

		testCasesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_test_cases_graded_total",
			Help: "Total number of graded test cases by verdict.",
		}, []string{"verdict"})

		batchStudentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_batch_students_total",
			Help: "Students processed by batch evaluations, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			evaluationsTotal,
			evaluationSeconds,
			testCasesTotal,
			batchStudentsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Evaluations exposes the counter for completed evaluations.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationDuration exposes the evaluation duration histogram.
func EvaluationDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return evaluationSeconds
}

// TestCasesGraded exposes the counter for graded test cases.
func TestCasesGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return testCasesTotal
}

// BatchStudents exposes the counter for batch per-student outcomes.
func BatchStudents() *prometheus.CounterVec {
	RegisterMetrics()
	return batchStudentsTotal
}
