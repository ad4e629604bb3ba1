package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/api"
	"github.com/qs3c/sub_billing_server/internal/api/handler"
	"github.com/qs3c/sub_billing_server/internal/database"
	"github.com/qs3c/sub_billing_server/internal/pkg/cron"
	"github.com/qs3c/sub_billing_server/internal/pkg/logger"
	"github.com/qs3c/sub_billing_server/internal/pkg/payment"
	"github.com/qs3c/sub_billing_server/internal/pkg/pubsub"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Log)

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Info("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Info("Redis connected")

	// 初始化 Queue 和 Pub/Sub
	orderQueue := queue.NewQueue[queue.OrderJob](rdb, cfg.Queue.OrderQueue)
	trafficQueue := queue.NewQueue[queue.TrafficJob](rdb, cfg.Queue.TrafficQueue)
	publisher := pubsub.NewPublisher(rdb)

	// 支付渠道
	registry := payment.NewRegistry()
	for method, pc := range cfg.Payment {
		gateway, err := payment.NewGateway(pc.Driver, pc.Key)
		if err != nil {
			log.Fatalf("Failed to init payment %s: %v", method, err)
		}
		registry.Register(method, gateway)
	}
	log.WithField("methods", registry.Methods()).Info("Payment gateways registered")

	store := repository.NewStore(db)

	// 初始化 Service
	userService := service.NewUserService(store, cfg)
	couponService := service.NewCouponService(store)
	fulfillmentService := service.NewFulfillmentService(store, userService, orderQueue, publisher)
	orderService := service.NewOrderService(store, cfg, userService, service.NewPlanService(), couponService, fulfillmentService)
	trafficService := service.NewTrafficService(store, rdb, trafficQueue)
	statService := service.NewStatService(store, rdb)

	// 统计落库定时任务
	cronService := cron.NewService(statService, time.Duration(cfg.Stat.FlushIntervalMinutes)*time.Minute)
	// 开通失败且重试耗尽的订单重新投递
	redispatchAfter := time.Duration(cfg.Queue.RedispatchAfterMinutes) * time.Minute
	cronService.AddSweep("order_redispatch", redispatchAfter, func(ctx context.Context) error {
		_, err := fulfillmentService.RedispatchStale(ctx, redispatchAfter)
		return err
	})
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Handler
	router := api.NewRouter(
		handler.NewOrderHandler(orderService, fulfillmentService),
		handler.NewCouponHandler(couponService),
		handler.NewUserHandler(userService),
		handler.NewPaymentHandler(registry, fulfillmentService),
		handler.NewServerHandler(trafficService),
		userService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Infof("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
