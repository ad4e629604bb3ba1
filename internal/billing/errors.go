package billing

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// 错误分类，具体错误通过 errors.Mark 归入其中一类
var (
	ErrValidation          = errors.New("validation error")
	ErrCapacityExceeded    = errors.New("当前商品已售罄")
	ErrConcurrencyConflict = errors.New("资源正被占用，请稍后重试")
	ErrFulfillmentFailed   = errors.New("fulfillment failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("余额不足")

	// ErrOrderActivationFailed 对外统一返回，不暴露内部失败细节
	ErrOrderActivationFailed = errors.New("订单开通失败")
)

// CouponReason 优惠券校验失败原因
type CouponReason string

const (
	CouponNotFound            CouponReason = "not_found"
	CouponExhausted           CouponReason = "exhausted"
	CouponNotStarted          CouponReason = "not_started"
	CouponExpired             CouponReason = "expired"
	CouponPlanNotEligible     CouponReason = "plan_not_eligible"
	CouponPeriodNotEligible   CouponReason = "period_not_eligible"
	CouponPerSubscriberExceed CouponReason = "per_subscriber_limit_exceeded"
)

var couponMessages = map[CouponReason]string{
	CouponNotFound:            "优惠券无效",
	CouponExhausted:           "优惠券已无可用次数",
	CouponNotStarted:          "优惠券还未到可用时间",
	CouponExpired:             "优惠券已过期",
	CouponPlanNotEligible:     "该订阅无法使用此优惠码",
	CouponPeriodNotEligible:   "该订阅周期无法使用此优惠码",
	CouponPerSubscriberExceed: "该优惠券每人可用次数已达上限",
}

// CouponError 优惠券规则不满足
type CouponError struct {
	Reason CouponReason
	Limit  int64
}

func (e *CouponError) Error() string {
	if e.Reason == CouponPerSubscriberExceed && e.Limit > 0 {
		return fmt.Sprintf("该优惠券每人只能用%d次", e.Limit)
	}
	if msg, ok := couponMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

// Is 使 errors.Is(err, ErrValidation) 对优惠券错误成立
func (e *CouponError) Is(target error) bool {
	return target == ErrValidation
}

func NewCouponError(reason CouponReason) *CouponError {
	return &CouponError{Reason: reason}
}

// IsCouponError 判断并取出优惠券错误
func IsCouponError(err error) (*CouponError, bool) {
	var e *CouponError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
