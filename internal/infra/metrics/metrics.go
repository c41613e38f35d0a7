package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var objectAttemptsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "deka_object_attempts_total",
		Help: "Total number of apply/delete attempts, including retries.",
	},
	[]string{"action", "result"},
)

var objectsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "deka_objects_total",
		Help: "Total number of objects that reached a terminal outcome.",
	},
	[]string{"action", "outcome"},
)

var inFlightOperations = promauto.With(prometheus.DefaultRegisterer).NewGauge(
	prometheus.GaugeOpts{
		Name: "deka_in_flight_operations",
		Help: "Number of object operations currently holding a concurrency slot.",
	},
)

var batchDurationSeconds = promauto.With(prometheus.DefaultRegisterer).NewHistogram(
	prometheus.HistogramOpts{
		Name:    "deka_batch_duration_seconds",
		Help:    "Wall-clock duration of a whole batch apply.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	},
)

// RecordAttempt counts one apply/delete attempt with its result (success or failure).
func RecordAttempt(action, result string) {
	objectAttemptsTotal.WithLabelValues(action, result).Inc()
}

// RecordObjectOutcome counts one object reaching a terminal outcome.
func RecordObjectOutcome(action, outcome string) {
	objectsTotal.WithLabelValues(action, outcome).Inc()
}

// IncInFlightOperations marks one operation entering its attempting phase.
func IncInFlightOperations() {
	inFlightOperations.Inc()
}

// DecInFlightOperations marks one operation leaving its attempting phase.
func DecInFlightOperations() {
	inFlightOperations.Dec()
}

// ObserveBatchDuration records the total batch duration in seconds.
func ObserveBatchDuration(seconds float64) {
	batchDurationSeconds.Observe(seconds)
}
