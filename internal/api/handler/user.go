package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/sub_billing_server/internal/api/middleware"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetSubscribe 当前订阅、流量与重置日
// GET /api/v1/user/subscribe
func (h *UserHandler) GetSubscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.userService.GetSubscribe(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, info)
}
