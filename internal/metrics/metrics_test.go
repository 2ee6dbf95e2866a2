package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Collectors live on the default registry, so state persists across tests in
// this package; assertions measure increments rather than absolute values.

func TestRecordCheckout(t *testing.T) {
	before := testutil.ToFloat64(checkoutsTotal.WithLabelValues("success"))
	RecordCheckout("success")
	RecordCheckout("success")
	RecordCheckout("error")

	assert.Equal(t, before+2, testutil.ToFloat64(checkoutsTotal.WithLabelValues("success")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(checkoutsTotal.WithLabelValues("error")), float64(1))
}

func TestRecordPaymentOutcome(t *testing.T) {
	before := testutil.ToFloat64(paymentOutcomesTotal.WithLabelValues("stripe", "completed"))
	RecordPaymentOutcome("stripe", "completed")
	assert.Equal(t, before+1, testutil.ToFloat64(paymentOutcomesTotal.WithLabelValues("stripe", "completed")))
}

func TestObserveOrderCreate_IncrementsSampleCount(t *testing.T) {
	beforeCount := histogramCount(t, GetOrderCreateSeconds())
	ObserveOrderCreate(25 * time.Millisecond)
	afterCount := histogramCount(t, GetOrderCreateSeconds())
	assert.Equal(t, beforeCount+1, afterCount)
}

func TestRecordReconcileFailure(t *testing.T) {
	before := testutil.ToFloat64(GetReconcileFailuresTotal())
	RecordReconcileFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(GetReconcileFailuresTotal()))
}

// histogramCount reads the sample count out of the collected metric proto.
func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	require.NotNil(t, m.Histogram)
	return m.Histogram.GetSampleCount()
}
