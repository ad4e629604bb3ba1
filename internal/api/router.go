package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/api/handler"
	"github.com/qs3c/sub_billing_server/internal/api/middleware"
	"github.com/qs3c/sub_billing_server/internal/service"
)

type Router struct {
	orderHandler   *handler.OrderHandler
	couponHandler  *handler.CouponHandler
	userHandler    *handler.UserHandler
	paymentHandler *handler.PaymentHandler
	serverHandler  *handler.ServerHandler
	userService    *service.UserService
	cfg            *config.Config
}

func NewRouter(
	orderHandler *handler.OrderHandler,
	couponHandler *handler.CouponHandler,
	userHandler *handler.UserHandler,
	paymentHandler *handler.PaymentHandler,
	serverHandler *handler.ServerHandler,
	userService *service.UserService,
	cfg *config.Config,
) *Router {
	return &Router{
		orderHandler:   orderHandler,
		couponHandler:  couponHandler,
		userHandler:    userHandler,
		paymentHandler: paymentHandler,
		serverHandler:  serverHandler,
		userService:    userService,
		cfg:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	{
		// 支付回调
		guest := api.Group("/guest")
		{
			guest.GET("/payment/notify/:method", r.paymentHandler.Notify)
			guest.POST("/payment/notify/:method", r.paymentHandler.Notify)
		}

		// 节点上报
		server := api.Group("/server")
		server.Use(middleware.NodeAuth(r.cfg.Server.NodeToken))
		{
			server.POST("/:type/:id/push", r.serverHandler.Push)
		}

		// 需要认证的接口
		user := api.Group("/user")
		user.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.ActiveAccount(r.userService))
		{
			user.GET("/subscribe", r.userHandler.GetSubscribe)

			user.POST("/order/save", r.orderHandler.Save)
			user.POST("/order/cancel", r.orderHandler.Cancel)
			user.GET("/order", r.orderHandler.List)
			user.GET("/order/:trade_no", r.orderHandler.Detail)

			user.POST("/coupon/check", r.couponHandler.Check)
		}
	}

	return engine
}
