package mymetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartshop"

// ShopMetrics uses its own registry so that multiple instances can coexist in tests.
type ShopMetrics struct {
	registry       *prometheus.Registry
	OrdersPlaced   prometheus.Counter
	OrderAmount    *prometheus.CounterVec
	CartMutations  *prometheus.CounterVec
	StockDepleted  prometheus.Counter
	RejectedOrders prometheus.Counter
}

func NewShopMetrics() *ShopMetrics {
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	})
	orderAmount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_amount_minor_total",
		Help:      "Sum of order totals in minor currency units.",
	}, []string{"currency"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Total number of successful cart mutations.",
	}, []string{"operation"})
	stockDepleted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_depleted_total",
		Help:      "Total number of times a product sold out.",
	})
	rejectedOrders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_rejected_total",
		Help:      "Total number of order attempts that were rejected.",
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		ordersPlaced, orderAmount, cartMutations, stockDepleted, rejectedOrders,
	)

	return &ShopMetrics{
		registry:       registry,
		OrdersPlaced:   ordersPlaced,
		OrderAmount:    orderAmount,
		CartMutations:  cartMutations,
		StockDepleted:  stockDepleted,
		RejectedOrders: rejectedOrders,
	}
}

func (m *ShopMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
