package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/sub_billing_server/internal/pkg/response"
)

func TestNodeAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		query      string
		pass       bool
	}{
		{name: "matching token", configured: "node-secret", query: "?token=node-secret", pass: true},
		{name: "wrong token", configured: "node-secret", query: "?token=guess"},
		{name: "missing token", configured: "node-secret"},
		{name: "not configured", configured: "", query: "?token="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(NodeAuth(tt.configured))
			router.POST("/push", func(c *gin.Context) {
				response.Success(c, true)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/push"+tt.query, nil))

			resp := parseResponse(t, w)
			if tt.pass {
				assert.Equal(t, response.CodeSuccess, resp.Code)
				return
			}
			assert.Equal(t, response.CodePermissionDenied, resp.Code)
		})
	}
}
