package mymetrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	// given
	sut := NewShopMetrics()
	sut.OrdersPlaced.Inc()
	sut.OrderAmount.WithLabelValues("UGX").Add(1250)
	sut.CartMutations.WithLabelValues("add").Inc()
	sut.CartMutations.WithLabelValues("add").Inc()

	// when
	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	response := httptest.NewRecorder()
	sut.Handler().ServeHTTP(response, request)

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	body := response.Body.String()
	assert.Contains(t, body, "smartshop_orders_placed_total 1")
	assert.Contains(t, body, `smartshop_order_amount_minor_total{currency="UGX"} 1250`)
	assert.Contains(t, body, `smartshop_cart_mutations_total{operation="add"} 2`)
	assert.Contains(t, body, "smartshop_stock_depleted_total 0")
}

func TestIndependentInstances(t *testing.T) {
	assert.NotPanics(t, func() {
		NewShopMetrics()
		NewShopMetrics()
	})
}
