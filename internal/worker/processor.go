package worker

import (
	"context"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
)

// OrderFulfiller 开通订单
type OrderFulfiller interface {
	Fulfill(ctx context.Context, orderID int64) error
}

// TrafficApplier 流量入账
type TrafficApplier interface {
	ApplyTrafficJob(ctx context.Context, job *queue.TrafficJob) error
}

// OrderRequeuer 开通失败的任务重新入队
type OrderRequeuer interface {
	Push(ctx context.Context, job *queue.OrderJob) error
}

// OrderProcessor 订单开通任务处理器
type OrderProcessor struct {
	fulfiller   OrderFulfiller
	requeue     OrderRequeuer
	maxAttempts int
}

func NewOrderProcessor(fulfiller OrderFulfiller, requeue OrderRequeuer, maxAttempts int) *OrderProcessor {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &OrderProcessor{
		fulfiller:   fulfiller,
		requeue:     requeue,
		maxAttempts: maxAttempts,
	}
}

// Process 开通失败时订单保持开通中，未达最大次数的任务重新入队，
// 超过次数的由定时任务按支付时间重新投递
func (p *OrderProcessor) Process(ctx context.Context, job *queue.OrderJob) error {
	logger := log.WithFields(log.Fields{
		"order_id": job.OrderID,
		"trade_no": job.TradeNo,
		"attempt":  job.Attempt,
	})

	if err := p.fulfiller.Fulfill(ctx, job.OrderID); err != nil {
		if errors.Is(err, billing.ErrFulfillmentFailed) {
			logger.WithError(err).Error("order fulfillment rolled back")
			p.retry(ctx, job, logger)
		} else {
			logger.WithError(err).Warn("order job skipped")
		}
		return err
	}

	logger.Info("order fulfilled")
	return nil
}

func (p *OrderProcessor) retry(ctx context.Context, job *queue.OrderJob, logger *log.Entry) {
	next := job.Attempt + 1
	if p.requeue == nil || next >= p.maxAttempts {
		logger.Error("order fulfillment attempts exhausted")
		return
	}

	retry := *job
	retry.Attempt = next
	if err := p.requeue.Push(ctx, &retry); err != nil {
		logger.WithError(err).Error("requeue order job failed")
	}
}

// TrafficProcessor 流量入账任务处理器
type TrafficProcessor struct {
	applier TrafficApplier
}

func NewTrafficProcessor(applier TrafficApplier) *TrafficProcessor {
	return &TrafficProcessor{applier: applier}
}

func (p *TrafficProcessor) Process(ctx context.Context, job *queue.TrafficJob) error {
	if err := p.applier.ApplyTrafficJob(ctx, job); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"server_id":   job.ServerID,
			"server_type": job.ServerType,
			"users":       len(job.Deltas),
		}).Error("apply traffic job failed")
		return err
	}
	return nil
}
