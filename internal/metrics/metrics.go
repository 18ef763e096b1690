package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fueltracker_"

	ResultSuccess     = "success"
	ResultInvalid     = "invalid"
	ResultError       = "error"
	ResultRejected    = "rejected"
	ResultForbidden   = "forbidden"
	ResultUnknownRole = "unknown_role"
)

var (
	registerOnce sync.Once

	submissions      *prometheus.CounterVec
	logins           *prometheus.CounterVec
	warnings         *prometheus.CounterVec
	storeCallLatency *prometheus.HistogramVec
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		submissions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_submissions_total",
				Help: "Report submissions by kind and result",
			},
			[]string{"kind", "result"},
		)
		logins = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		)
		warnings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "data_quality_warnings_total",
				Help: "Data quality warnings raised while loading stored rows",
			},
			[]string{"worksheet"},
		)
		storeCallLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_call_latency_seconds",
				Help:    "Record store call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		prometheus.MustRegister(submissions, logins, warnings, storeCallLatency)
	})
}

func ObserveSubmission(kind, result string) {
	if submissions == nil {
		return
	}

	submissions.WithLabelValues(kind, result).Inc()
}

func ObserveLogin(result string) {
	if logins == nil {
		return
	}

	logins.WithLabelValues(result).Inc()
}

func ObserveWarnings(worksheet string, n int) {
	if warnings == nil || n == 0 {
		return
	}

	warnings.WithLabelValues(worksheet).Add(float64(n))
}

func ObserveStoreCall(op string, started time.Time, err error) {
	if storeCallLatency == nil {
		return
	}

	result := ResultSuccess
	if err != nil {
		result = ResultError
	}

	storeCallLatency.WithLabelValues(op, result).Observe(time.Since(started).Seconds())
}
