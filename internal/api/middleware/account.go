package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/service"
)

// ActiveAccount 拒绝已封禁或已删除的账号，需放在 Auth 之后
func ActiveAccount(userService *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		if err := userService.CheckActive(c.Request.Context(), userID); err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
