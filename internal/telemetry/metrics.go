package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atento_chain_runs_total",
		Help: "Total chain runs by final status",
	}, []string{"status"})

	chainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "atento_chain_duration_seconds",
		Help:    "Chain run duration",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atento_step_duration_seconds",
		Help:    "Step execution duration by interpreter",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
	}, []string{"interpreter"})

	stepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atento_step_failures_total",
		Help: "Failed steps by error kind",
	}, []string{"kind"})

	recordFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atento_record_failures_total",
		Help: "Failures to archive or publish a finished chain run",
	}, []string{"target"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atento_http_requests_total",
		Help: "HTTP requests handled by atento-api",
	}, []string{"route", "code"})
)

// ObserveChain учитывает завершённый chain.
func ObserveChain(status string, d time.Duration) {
	chainRunsTotal.WithLabelValues(status).Inc()
	chainDuration.Observe(d.Seconds())
}

// ObserveStep учитывает выполненный шаг.
func ObserveStep(interpreter string, d time.Duration) {
	stepDuration.WithLabelValues(interpreter).Observe(d.Seconds())
}

// StepFailed учитывает упавший шаг.
func StepFailed(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	stepFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordFailed учитывает ошибку записи: "encode", "store" или "publish".
func RecordFailed(target string) {
	recordFailuresTotal.WithLabelValues(target).Inc()
}

// ObserveHTTP учитывает HTTP запрос. route — шаблон маршрута ServeMux.
func ObserveHTTP(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
