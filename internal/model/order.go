package model

import (
	"time"

	"gorm.io/datatypes"
)

// 订单类型
const (
	OrderTypeNewPurchase  = 1
	OrderTypeRenewal      = 2
	OrderTypeUpgrade      = 3
	OrderTypeResetTraffic = 4
)

// 订单状态
const (
	OrderStatusPending    = 0
	OrderStatusProcessing = 1
	OrderStatusCancelled  = 2
	OrderStatusCompleted  = 3
	OrderStatusDiscounted = 4 // 已被升级订单折抵
)

// VoidOrderStatuses 不计入有效订单的状态
var VoidOrderStatuses = []int{OrderStatusPending, OrderStatusCancelled}

// Order 金额字段单位均为分
type Order struct {
	ID                int64                     `gorm:"primaryKey" json:"id"`
	TradeNo           string                    `gorm:"size:36;uniqueIndex;not null" json:"trade_no"`
	UserID            int64                     `gorm:"not null;index" json:"user_id"`
	PlanID            int64                     `gorm:"not null;index" json:"plan_id"`
	Period            string                    `gorm:"size:20;not null" json:"period"`
	Type              int                       `gorm:"not null" json:"type"`
	Status            int                       `gorm:"default:0;index" json:"status"`
	TotalAmount       int64                     `gorm:"not null" json:"total_amount"`
	DiscountAmount    int64                     `gorm:"default:0" json:"discount_amount"`
	SurplusAmount     int64                     `gorm:"default:0" json:"surplus_amount"`
	RefundAmount      int64                     `gorm:"default:0" json:"refund_amount"`
	BalanceAmount     int64                     `gorm:"default:0" json:"balance_amount"`
	CommissionBalance int64                     `gorm:"default:0" json:"commission_balance"`
	CouponID          *int64                    `gorm:"index" json:"coupon_id"`
	SurplusOrderIDs   datatypes.JSONSlice[int64] `gorm:"type:json" json:"surplus_order_ids"`
	InviteUserID      *int64                    `json:"invite_user_id"`
	PaymentMethod     string                    `gorm:"size:50" json:"payment_method,omitempty"`
	CallbackNo        string                    `gorm:"size:255" json:"callback_no,omitempty"`
	PaidAt            *time.Time                `json:"paid_at"`
	CreatedAt         time.Time                 `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// IsPeriodic 按周期计费的订单（排除一次性与重置流量）
func (o *Order) IsPeriodic() bool {
	return o.Period != PeriodOneTime && o.Period != PeriodReset
}
