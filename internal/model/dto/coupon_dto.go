package dto

// CheckCouponRequest 校验优惠券请求
type CheckCouponRequest struct {
	Code   string `json:"code" binding:"required,max=64"`
	PlanID int64  `json:"plan_id,omitempty"`
	Period string `json:"period,omitempty"`
}

// CouponItem 优惠券展示
type CouponItem struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Type  int    `json:"type"`
	Value int64  `json:"value"`
}
