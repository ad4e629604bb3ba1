package dto

import (
	"time"

	"github.com/qs3c/sub_billing_server/internal/model"
)

// SaveOrderRequest 下单请求
type SaveOrderRequest struct {
	PlanID     int64  `json:"plan_id" binding:"required,min=1"`
	Period     string `json:"period" binding:"required"`
	CouponCode string `json:"coupon_code,omitempty" binding:"omitempty,max=64"`
}

// SaveOrderResponse 下单响应
type SaveOrderResponse struct {
	TradeNo string `json:"trade_no"`
	Status  int    `json:"status"`
	Total   int64  `json:"total_amount"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	TradeNo string `json:"trade_no" binding:"required"`
}

// OrderItem 订单展示
type OrderItem struct {
	TradeNo        string     `json:"trade_no"`
	PlanID         int64      `json:"plan_id"`
	Period         string     `json:"period"`
	Type           int        `json:"type"`
	Status         int        `json:"status"`
	TotalAmount    int64      `json:"total_amount"`
	DiscountAmount int64      `json:"discount_amount"`
	SurplusAmount  int64      `json:"surplus_amount"`
	RefundAmount   int64      `json:"refund_amount"`
	BalanceAmount  int64      `json:"balance_amount"`
	PaidAt         *time.Time `json:"paid_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewOrderItem 不对用户展示返佣与内部关联字段
func NewOrderItem(o *model.Order) OrderItem {
	return OrderItem{
		TradeNo:        o.TradeNo,
		PlanID:         o.PlanID,
		Period:         o.Period,
		Type:           o.Type,
		Status:         o.Status,
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		SurplusAmount:  o.SurplusAmount,
		RefundAmount:   o.RefundAmount,
		BalanceAmount:  o.BalanceAmount,
		PaidAt:         o.PaidAt,
		CreatedAt:      o.CreatedAt,
	}
}
