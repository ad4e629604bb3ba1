package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/sub_billing_server/internal/api/middleware"
	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model/dto"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/service"
)

type CouponHandler struct {
	couponService *service.CouponService
}

func NewCouponHandler(couponService *service.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// Check 下单前校验优惠券，不扣减次数
// POST /api/v1/user/coupon/check
func (h *CouponHandler) Check(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CheckCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	coupon, err := h.couponService.Check(c.Request.Context(), req.Code, billing.CouponContext{
		PlanID: req.PlanID,
		Period: req.Period,
		UserID: userID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, dto.CouponItem{
		Code:  coupon.Code,
		Name:  coupon.Name,
		Type:  coupon.Type,
		Value: coupon.Value,
	})
}
