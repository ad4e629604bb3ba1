package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qs3c/sub_billing_server/internal/model"
)

var (
	// OrdersCreated 按订单类型统计的下单数
	OrdersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "orders_created_total",
		Help:      "Orders created, by order type.",
	}, []string{"type"})

	// OrdersFulfilled 按订单类型统计的开通数
	OrdersFulfilled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "orders_fulfilled_total",
		Help:      "Orders fulfilled, by order type.",
	}, []string{"type"})

	FulfillmentFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "fulfillment_failures_total",
		Help:      "Order fulfillment transactions rolled back.",
	})

	OrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled.",
	})

	// TrafficBytes 节点上报的原始流量，direction 为 u 或 d
	TrafficBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "traffic_reported_bytes_total",
		Help:      "Raw traffic bytes reported by nodes.",
	}, []string{"server_type", "direction"})
)

func init() {
	prometheus.MustRegister(
		OrdersCreated,
		OrdersFulfilled,
		FulfillmentFailures,
		OrdersCancelled,
		TrafficBytes,
	)
}

// OrderTypeLabel 订单类型的指标标签
func OrderTypeLabel(orderType int) string {
	switch orderType {
	case model.OrderTypeNewPurchase:
		return "new_purchase"
	case model.OrderTypeRenewal:
		return "renewal"
	case model.OrderTypeUpgrade:
		return "upgrade"
	case model.OrderTypeResetTraffic:
		return "reset_traffic"
	default:
		return "unknown"
	}
}
