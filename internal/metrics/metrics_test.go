package metrics_test

import (
	"testing"

	"storefront/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.CheckoutResult("success")
	m.CheckoutResult("success")
	m.CheckoutResult("failed")
	m.AddedToCart(3)
	m.OrderTransition("approved")
	m.StockDecremented(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CartAdds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderTransitions.WithLabelValues("approved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StockDecrements))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.CheckoutResult("success")
		m.AddedToCart(1)
		m.OrderTransition("delivered")
		m.StockDecremented(1)
	})
}

func TestWatchDevices(t *testing.T) {
	reg := prometheus.NewRegistry()
	live := 3
	metrics.WatchDevices(reg, func() int { return live })

	count, err := testutil.GatherAndCount(reg, "storefront_live_devices")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Equal(t, 3.0, families[0].GetMetric()[0].GetGauge().GetValue())

	live = 5
	families, err = reg.Gather()
	assert.NoError(t, err)
	assert.Equal(t, 5.0, families[0].GetMetric()[0].GetGauge().GetValue())
}
