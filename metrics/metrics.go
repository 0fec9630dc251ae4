// Package metrics provides Prometheus collectors for storage backend
// operations.
//
// Collectors are package-level and recorded by the backends directly.
// They are not registered anywhere by default; host applications call
// Register with their own prometheus.Registerer to expose them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "datakit"

// Status constants for metric labels.
const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	// backendOperationsTotal counts backend operations by outcome.
	backendOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_operations_total",
			Help:      "Total number of storage backend operations",
		},
		[]string{"backend", "operation", "status"}, // status: success, error
	)

	// backendOperationDuration is a histogram of backend operation duration.
	backendOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_operation_duration_seconds",
			Help:      "Histogram of storage backend operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// backendRetriesTotal counts retry attempts on transient failures.
	backendRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_retries_total",
			Help:      "Total number of retried transient backend failures",
		},
		[]string{"backend", "operation"},
	)

	// backendBytesTotal counts payload bytes moved through backends.
	backendBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_bytes_total",
			Help:      "Total payload bytes read from or written to backends",
		},
		[]string{"backend", "direction"}, // direction: read, write
	)
)

// allMetrics lists every collector this package owns.
var allMetrics = []prometheus.Collector{
	backendOperationsTotal,
	backendOperationDuration,
	backendRetriesTotal,
	backendBytesTotal,
}

// Register registers all collectors with the given registerer.
// It returns the first registration error encountered.
func Register(r prometheus.Registerer) error {
	for _, c := range allMetrics {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister registers all collectors and panics on failure.
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(allMetrics...)
}

// RecordOperation records one backend operation with its duration and outcome.
func RecordOperation(backend, operation string, elapsed time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	backendOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	backendOperationDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}

// RecordRetry records one retried transient failure.
func RecordRetry(backend, operation string) {
	backendRetriesTotal.WithLabelValues(backend, operation).Inc()
}

// RecordBytesRead records payload bytes read from a backend.
func RecordBytesRead(backend string, n int) {
	backendBytesTotal.WithLabelValues(backend, "read").Add(float64(n))
}

// RecordBytesWritten records payload bytes written to a backend.
func RecordBytesWritten(backend string, n int) {
	backendBytesTotal.WithLabelValues(backend, "write").Add(float64(n))
}
