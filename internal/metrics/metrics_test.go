package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.OrderPlaced(300)
	m.OrderPlaced(8299)
	m.OrderCancelled()
	m.OrderRejected("insufficient_stock")
	m.CartMutation("add")
	m.CartMutation("add")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCancelled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced(1)
		m.OrderCancelled()
		m.OrderRejected("not_found")
		m.CartMutation("clear")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.CartMutation("remove")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `storefront_cart_mutations_total{op="remove"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
