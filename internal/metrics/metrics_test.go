package metrics

import (
	"testing"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HTTPPanicsTotal)
	assert.NotNil(t, CycleDuration)
	assert.NotNil(t, CyclesTotal)
	assert.NotNil(t, StateLoadFallbacksTotal)
	assert.NotNil(t, TargetPhase)
	assert.NotNil(t, AvailableSlots)
	assert.NotNil(t, LastCycleTimestamp)
	assert.NotNil(t, FetchAttemptsTotal)
	assert.NotNil(t, FetchFailuresTotal)
	assert.NotNil(t, FetchDuration)
	assert.NotNil(t, NotificationsSentTotal)
	assert.NotNil(t, NotificationFailuresTotal)
	assert.NotNil(t, NotificationDuration)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
}

func TestCyclesTotal_LabelsByOutcome(t *testing.T) {
	t.Parallel()

	c := CyclesTotal.WithLabelValues("metrics-test", "opened")
	before := ptestutil.ToFloat64(c)
	c.Inc()
	assert.InDelta(t, before+1, ptestutil.ToFloat64(c), 0.001)
}
