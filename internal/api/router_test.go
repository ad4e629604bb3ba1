package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/api/handler"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/jwt"
	"github.com/qs3c/sub_billing_server/internal/pkg/payment"
	"github.com/qs3c/sub_billing_server/internal/pkg/pubsub"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/service"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

const (
	testSecret    = "router-test-secret"
	testNodeToken = "node-token"
)

type routerEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	store  *repository.Store
}

func setupRouter(t *testing.T) *routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	rdb, _ := testutil.SetupTestRedis(t)

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test", NodeToken: testNodeToken},
		JWT:     config.JWTConfig{Secret: testSecret, ExpireHours: 1},
		Billing: config.DefaultBilling(),
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	store := repository.NewStore(db)

	users := service.NewUserService(store, cfg)
	coupons := service.NewCouponService(store)
	fulfillment := service.NewFulfillmentService(store, users,
		queue.NewQueue[queue.OrderJob](rdb, "order_handle"), pubsub.NewPublisher(rdb))
	orders := service.NewOrderService(store, cfg, users, service.NewPlanService(), coupons, fulfillment)
	traffic := service.NewTrafficService(store, rdb, queue.NewQueue[queue.TrafficJob](rdb, "traffic_fetch"))

	registry := payment.NewRegistry()
	registry.Register("epay", payment.NewEPay("key"))

	router := NewRouter(
		handler.NewOrderHandler(orders, fulfillment),
		handler.NewCouponHandler(coupons),
		handler.NewUserHandler(users),
		handler.NewPaymentHandler(registry, fulfillment),
		handler.NewServerHandler(traffic),
		users,
		cfg,
	)
	return &routerEnv{engine: router.Setup(), db: db, store: store}
}

func (e *routerEnv) do(method, path, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Metrics(t *testing.T) {
	env := setupRouter(t)

	w := env.do("GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_UserRoutes(t *testing.T) {
	env := setupRouter(t)

	t.Run("missing token", func(t *testing.T) {
		w := env.do("GET", "/api/v1/user/subscribe", "", "")
		assert.Equal(t, response.CodeAuthFailed, decode(t, w).Code)
	})

	t.Run("active user", func(t *testing.T) {
		user := &model.User{Email: "router@example.com"}
		require.NoError(t, env.store.Users.Create(user))
		token, err := jwt.GenerateToken(user.ID, testSecret, 1)
		require.NoError(t, err)

		w := env.do("GET", "/api/v1/user/subscribe", token, "")
		assert.Equal(t, response.CodeSuccess, decode(t, w).Code)

		w = env.do("GET", "/api/v1/user/order", token, "")
		assert.Equal(t, response.CodeSuccess, decode(t, w).Code)
	})

	t.Run("banned user", func(t *testing.T) {
		user := &model.User{Email: "banned@example.com", Banned: true}
		require.NoError(t, env.store.Users.Create(user))
		token, err := jwt.GenerateToken(user.ID, testSecret, 1)
		require.NoError(t, err)

		w := env.do("POST", "/api/v1/user/order/save", token, `{"plan_id":1,"period":"month_price"}`)
		assert.Equal(t, response.CodeParamError, decode(t, w).Code)
	})
}

func TestRouter_NodeToken(t *testing.T) {
	env := setupRouter(t)
	server := testutil.TestServer(t, env.db, model.ServerTypeVmess, 1)
	path := fmt.Sprintf("/api/v1/server/vmess/%d/push", server.ID)

	w := env.do("POST", path, "", `{}`)
	assert.Equal(t, response.CodePermissionDenied, decode(t, w).Code)

	w = env.do("POST", path+"?token=wrong", "", `{}`)
	assert.Equal(t, response.CodePermissionDenied, decode(t, w).Code)

	w = env.do("POST", path+"?token="+testNodeToken, "", `{"1":[10,20]}`)
	assert.Equal(t, response.CodeSuccess, decode(t, w).Code)
}

func TestRouter_PaymentNotifyIsPublic(t *testing.T) {
	env := setupRouter(t)

	w := env.do("POST", "/api/v1/guest/payment/notify/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", w.Body.String())
}
