package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/qs3c/sub_billing_server/internal/api/middleware"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/model/dto"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/service"
)

type OrderHandler struct {
	orderService       *service.OrderService
	fulfillmentService *service.FulfillmentService
}

func NewOrderHandler(orderService *service.OrderService, fulfillmentService *service.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		orderService:       orderService,
		fulfillmentService: fulfillmentService,
	}
}

// Save 创建订单
// POST /api/v1/user/order/save
func (h *OrderHandler) Save(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), userID, service.CheckoutRequest{
		PlanID:     req.PlanID,
		Period:     req.Period,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "下单成功", dto.SaveOrderResponse{
		TradeNo: order.TradeNo,
		Status:  order.Status,
		Total:   order.TotalAmount,
	})
}

// Cancel 取消待支付订单
// POST /api/v1/user/order/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	// 先校验归属
	if _, err := h.orderService.GetUserOrder(c.Request.Context(), userID, req.TradeNo); err != nil {
		response.FromError(c, err)
		return
	}

	if err := h.fulfillmentService.Cancel(c.Request.Context(), req.TradeNo); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "取消成功", true)
}

// Detail 订单详情
// GET /api/v1/user/order/:trade_no
func (h *OrderHandler) Detail(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	order, err := h.orderService.GetUserOrder(c.Request.Context(), userID, c.Param("trade_no"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, dto.NewOrderItem(order))
}

// List 订单列表
// GET /api/v1/user/order
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var status *int
	if raw := c.Query("status"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.ParamError(c, "无效的订单状态")
			return
		}
		status = &v
	}

	orders, total, err := h.orderService.ListUserOrders(c.Request.Context(), userID, status, page, pageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	items := lo.Map(orders, func(o *model.Order, _ int) dto.OrderItem { return dto.NewOrderItem(o) })
	response.SuccessPage(c, total, page, pageSize, items)
}
