package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/database"
	"github.com/qs3c/sub_billing_server/internal/pkg/logger"
	"github.com/qs3c/sub_billing_server/internal/pkg/pubsub"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/service"
	"github.com/qs3c/sub_billing_server/internal/worker"
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

	store := repository.NewStore(db)
	userService := service.NewUserService(store, cfg)
	fulfillmentService := service.NewFulfillmentService(store, userService, orderQueue, publisher)
	trafficService := service.NewTrafficService(store, rdb, trafficQueue)

	// 创建任务处理器
	orders := worker.NewPool[queue.OrderJob]("order", orderQueue, cfg.Queue.MaxWorkers,
		worker.NewOrderProcessor(fulfillmentService, orderQueue, cfg.Queue.MaxAttempts).Process)
	traffic := worker.NewPool[queue.TrafficJob]("traffic", trafficQueue, cfg.Queue.MaxWorkers,
		worker.NewTrafficProcessor(trafficService).Process)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		orders.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		traffic.Run(ctx)
	}()
	// 订单事件仅记录，下游订阅方自行消费
	go func() {
		defer wg.Done()
		err := pubsub.NewSubscriber(rdb).Subscribe(ctx, func(event *pubsub.OrderEvent) {
			log.WithFields(log.Fields{
				"type":     event.Type,
				"user_id":  event.UserID,
				"trade_no": event.TradeNo,
			}).Info("order event")
		})
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Error("order event subscription stopped")
		}
	}()

	log.Infof("Worker started, max workers: %d, max attempts: %d", cfg.Queue.MaxWorkers, cfg.Queue.MaxAttempts)
	wg.Wait()
	log.Info("Worker shutdown complete")
}
