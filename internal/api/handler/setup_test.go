package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/api/middleware"
	"github.com/qs3c/sub_billing_server/internal/pkg/pubsub"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/service"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testContext 处理器测试依赖，队列与事件使用 miniredis
type testContext struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Miniredis    *miniredis.Miniredis
	OrderQueue   *queue.Queue[queue.OrderJob]
	TrafficQueue *queue.Queue[queue.TrafficJob]
	Users        *service.UserService
	Orders       *service.OrderService
	Coupons      *service.CouponService
	Fulfillment  *service.FulfillmentService
	Traffic      *service.TrafficService
}

func setupContext(t *testing.T) *testContext {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	rdb, mr := testutil.SetupTestRedis(t)

	store := repository.NewStore(db)
	cfg := &config.Config{Billing: config.DefaultBilling()}

	orderQueue := queue.NewQueue[queue.OrderJob](rdb, "order_handle")
	trafficQueue := queue.NewQueue[queue.TrafficJob](rdb, "traffic_fetch")

	users := service.NewUserService(store, cfg)
	coupons := service.NewCouponService(store)
	fulfillment := service.NewFulfillmentService(store, users, orderQueue, pubsub.NewPublisher(rdb))
	orders := service.NewOrderService(store, cfg, users, service.NewPlanService(), coupons, fulfillment)

	return &testContext{
		DB:           db,
		Redis:        rdb,
		Miniredis:    mr,
		OrderQueue:   orderQueue,
		TrafficQueue: trafficQueue,
		Users:        users,
		Orders:       orders,
		Coupons:      coupons,
		Fulfillment:  fulfillment,
		Traffic:      service.NewTrafficService(store, rdb, trafficQueue),
	}
}

// mockAuth 模拟认证中间件
func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}
