package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DiscountAppliedTotal counts discount resolutions that produced a
	// deduction, labelled by condition type.
	DiscountAppliedTotal *prometheus.CounterVec
	// CartSyncTotal counts fire-and-forget cart mirror writes by outcome.
	CartSyncTotal *prometheus.CounterVec
	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises the storefront's domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountAppliedTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_applied_total",
			Help:      "Count of resolved discounts by condition type.",
		}, []string{"type"}))
		CartSyncTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sync_total",
			Help:      "Count of cart mirror sync attempts by result.",
		}, []string{"result"}))
		CheckoutTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"}))
	})
}
