package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/sub_billing_server/internal/pkg/response"
)

// NodeAuth 节点通信密钥校验，密钥通过 token 查询参数传递。未配置密钥时拒绝所有请求。
func NodeAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.Query("token")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			response.PermissionError(c, "token is error")
			c.Abort()
			return
		}
		c.Next()
	}
}
