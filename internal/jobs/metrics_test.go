package jobmetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerStatuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("refresh").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("refresh").End(boom), boom)
	skipped := fmt.Errorf("no session: %w", asynq.SkipRetry)
	assert.ErrorIs(t, m.Track("refresh").End(skipped), asynq.SkipRetry)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("refresh", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("refresh", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("refresh", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("refresh")))
}

func TestNilTracker(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("refresh").End(boom), boom)
}
