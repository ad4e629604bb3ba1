package billing

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/qs3c/sub_billing_server/internal/model"
)

// CouponContext 校验优惠券时的订单上下文，零值字段不参与校验
type CouponContext struct {
	PlanID int64
	Period string
	UserID int64
}

// ValidateCoupon 按固定顺序校验优惠券，首个失败的规则决定返回的原因。
// usedByUser 只在需要校验每人限用次数时才会被调用。
func ValidateCoupon(c *model.Coupon, cc CouponContext, usedByUser func() (int64, error), now time.Time) error {
	if c == nil || !c.Show {
		return NewCouponError(CouponNotFound)
	}
	if c.LimitUse != nil && *c.LimitUse <= 0 {
		return NewCouponError(CouponExhausted)
	}
	if now.Before(c.StartedAt) {
		return NewCouponError(CouponNotStarted)
	}
	if now.After(c.EndedAt) {
		return NewCouponError(CouponExpired)
	}
	if len(c.LimitPlanIDs) > 0 && cc.PlanID != 0 && !lo.Contains(c.LimitPlanIDs, cc.PlanID) {
		return NewCouponError(CouponPlanNotEligible)
	}
	if len(c.LimitPeriod) > 0 && cc.Period != "" && !lo.Contains(c.LimitPeriod, cc.Period) {
		return NewCouponError(CouponPeriodNotEligible)
	}
	if c.LimitUseWithUser != nil && cc.UserID != 0 && usedByUser != nil {
		used, err := usedByUser()
		if err != nil {
			return err
		}
		if used >= *c.LimitUseWithUser {
			return &CouponError{Reason: CouponPerSubscriberExceed, Limit: *c.LimitUseWithUser}
		}
	}
	return nil
}

// CouponDiscount 计算优惠金额，结果不超过订单金额
func CouponDiscount(c *model.Coupon, total int64) int64 {
	var discount int64
	switch c.Type {
	case model.CouponTypeAmount:
		discount = c.Value
	case model.CouponTypePercent:
		discount = Percent(total, c.Value)
	}
	if discount > total {
		discount = total
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Percent 计算 amount × rate%，四舍五入到分
func Percent(amount int64, rate int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(rate)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
