package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHit(3, 2*time.Millisecond)
	m.ObserveHit(0, time.Millisecond)
	m.RunFinished("completed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hitsProcessed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.recordsEmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.hitDuration))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHit(1, time.Second)
		m.RunFinished("failed")
	})
}
