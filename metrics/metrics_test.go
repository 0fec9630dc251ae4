package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/datakit-io/datakit/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))

	// Registering the same collectors twice must fail.
	assert.Error(t, metrics.Register(reg))
}

func TestRecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = metrics.Register(reg)

	metrics.RecordOperation("local", "write", 5*time.Millisecond, nil)
	metrics.RecordOperation("azure", "read", 10*time.Millisecond, errors.New("boom"))
	metrics.RecordRetry("azure", "read")
	metrics.RecordBytesWritten("local", 128)
	metrics.RecordBytesRead("azure", 64)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["datakit_backend_operations_total"])
	assert.True(t, names["datakit_backend_operation_duration_seconds"])
	assert.True(t, names["datakit_backend_retries_total"])
	assert.True(t, names["datakit_backend_bytes_total"])
}
