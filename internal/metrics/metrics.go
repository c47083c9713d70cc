// Package metrics holds the storefront's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Checkouts        *prometheus.CounterVec
	CartAdds         prometheus.Counter
	OrderTransitions *prometheus.CounterVec
	StockDecrements  prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		CartAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Units added to carts.",
		}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes by target status.",
		}, []string{"status"}),
		StockDecrements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_decremented_total",
			Help:      "Units removed from stock by checkouts.",
		}),
	}
	reg.MustRegister(m.Checkouts, m.CartAdds, m.OrderTransitions, m.StockDecrements)
	return m
}

// CheckoutResult records one finished checkout.
func (m *Metrics) CheckoutResult(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

// AddedToCart records quantity units added to a cart.
func (m *Metrics) AddedToCart(quantity int) {
	if m == nil {
		return
	}
	m.CartAdds.Add(float64(quantity))
}

// OrderTransition records an order moving to status.
func (m *Metrics) OrderTransition(status string) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(status).Inc()
}

// StockDecremented records units removed from stock.
func (m *Metrics) StockDecremented(units int) {
	if m == nil {
		return
	}
	m.StockDecrements.Add(float64(units))
}

// WatchDevices exports the number of live device controllers as reported by count.
func WatchDevices(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_devices",
		Help:      "Device controllers held in memory.",
	}, func() float64 { return float64(count()) }))
}
