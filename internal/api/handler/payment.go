package handler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/pkg/payment"
	"github.com/qs3c/sub_billing_server/internal/service"
)

type PaymentHandler struct {
	registry           *payment.Registry
	fulfillmentService *service.FulfillmentService
}

func NewPaymentHandler(registry *payment.Registry, fulfillmentService *service.FulfillmentService) *PaymentHandler {
	return &PaymentHandler{
		registry:           registry,
		fulfillmentService: fulfillmentService,
	}
}

// Notify 支付渠道异步回调。渠道只识别纯文本 success/fail，因此不使用统一响应结构。
// GET|POST /api/v1/guest/payment/notify/:method
func (h *PaymentHandler) Notify(c *gin.Context) {
	method := c.Param("method")
	logger := log.WithField("method", method)

	gateway, err := h.registry.Get(method)
	if err != nil {
		logger.WithError(err).Warn("payment notify for unknown method")
		c.String(http.StatusNotFound, "fail")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "fail")
		return
	}
	params := make(map[string]string, len(c.Request.Form))
	for k, v := range c.Request.Form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	notification, err := gateway.Notify(params)
	if err != nil {
		logger.WithError(err).Warn("payment notify rejected")
		c.String(http.StatusBadRequest, "fail")
		return
	}
	if !notification.Paid {
		c.String(http.StatusOK, "success")
		return
	}

	if err := h.fulfillmentService.MarkPaid(c.Request.Context(), notification.TradeNo, notification.CallbackNo); err != nil {
		logger.WithError(err).WithField("trade_no", notification.TradeNo).Error("mark order paid failed")
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrOrderNotFound) {
			status = http.StatusBadRequest
		}
		c.String(status, "fail")
		return
	}

	c.String(http.StatusOK, "success")
}
