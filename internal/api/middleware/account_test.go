package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/service"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func TestActiveAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	users := service.NewUserService(repository.NewStore(db), &config.Config{Billing: config.DefaultBilling()})

	active := testutil.TestUser(t, db)
	banned := testutil.TestUser(t, db, func(u *model.User) { u.Banned = true })

	tests := []struct {
		name   string
		userID int64
		code   int
	}{
		{name: "active", userID: active.ID, code: response.CodeSuccess},
		{name: "banned", userID: banned.ID, code: response.CodeParamError},
		{name: "deleted", userID: 9999, code: response.CodeResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				c.Set(UserIDKey, tt.userID)
				c.Next()
			})
			router.Use(ActiveAccount(users))
			router.GET("/test", func(c *gin.Context) {
				response.Success(c, nil)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.code, parseResponse(t, w).Code)
		})
	}
}

func TestActiveAccount_NoUser(t *testing.T) {
	router := gin.New()
	router.Use(ActiveAccount(nil))
	router.GET("/test", func(c *gin.Context) {
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)
}
