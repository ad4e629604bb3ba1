package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/metrics"
	"github.com/qs3c/sub_billing_server/internal/pkg/pubsub"
	"github.com/qs3c/sub_billing_server/internal/pkg/queue"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

var (
	ErrOrderStatus         = errors.Mark(errors.New("订单状态不允许开通"), billing.ErrValidation)
	ErrOrderNotPaid        = errors.Mark(errors.New("订单尚未支付"), billing.ErrValidation)
	ErrOrderNotCancellable = errors.Mark(errors.New("只能取消待支付的订单"), billing.ErrValidation)
	ErrDispatchFailed      = errors.Mark(errors.New("订单任务投递失败"), billing.ErrConcurrencyConflict)

	errActivationFailed = errors.Mark(billing.ErrOrderActivationFailed, billing.ErrFulfillmentFailed)
)

const redispatchBatch = 100

// OrderDispatcher 投递订单开通任务
type OrderDispatcher interface {
	Push(ctx context.Context, job *queue.OrderJob) error
}

// EventPublisher 发布订单事件
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *pubsub.OrderEvent) error
}

type FulfillmentService struct {
	store      *repository.Store
	users      *UserService
	dispatcher OrderDispatcher
	publisher  EventPublisher
	now        func() time.Time
}

func NewFulfillmentService(store *repository.Store, users *UserService, dispatcher OrderDispatcher, publisher EventPublisher) *FulfillmentService {
	return &FulfillmentService{
		store:      store,
		users:      users,
		dispatcher: dispatcher,
		publisher:  publisher,
		now:        time.Now,
	}
}

// MarkPaid 支付成功回调：待支付订单转为开通中并投递开通任务。
// 非待支付订单直接返回成功，重复回调不会重复投递。投递失败时状态变更一并回滚。
func (s *FulfillmentService) MarkPaid(ctx context.Context, tradeNo, callbackNo string) error {
	var paid *model.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.Orders.GetByTradeNoForUpdate(tradeNo)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if order.Status != model.OrderStatusPending {
			return nil
		}

		ok, err := tx.Orders.MarkProcessing(order.ID, callbackNo, s.now())
		if err != nil {
			return errors.Wrap(err, "mark order processing")
		}
		if !ok {
			return nil
		}

		if err := s.dispatcher.Push(ctx, &queue.OrderJob{OrderID: order.ID, TradeNo: order.TradeNo}); err != nil {
			return errors.WithSecondaryError(ErrDispatchFailed, err)
		}
		paid = order
		return nil
	})
	if err != nil {
		return err
	}

	if paid != nil {
		s.publish(ctx, pubsub.EventOrderPaid, paid, nil)
	}
	return nil
}

// Fulfill 开通订单，只接受开通中的订单。订单、用户与被折抵订单的修改在同一事务中完成，
// 失败时整体回滚并返回统一的开通失败错误，订单保持开通中以便重试。
func (s *FulfillmentService) Fulfill(ctx context.Context, orderID int64) error {
	var (
		order *model.Order
		user  *model.User
		done  bool
	)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetByIDForUpdate(orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}

		switch order.Status {
		case model.OrderStatusCompleted:
			done = true
			return nil
		case model.OrderStatusPending:
			// 支付事务未提交时任务可能已入队
			return ErrOrderNotPaid
		case model.OrderStatusCancelled, model.OrderStatusDiscounted:
			return ErrOrderStatus
		}

		user, err = tx.Users.GetByIDForUpdate(order.UserID)
		if err != nil {
			return errors.Wrap(err, "load user")
		}
		plan, err := tx.Plans.GetByID(order.PlanID)
		if err != nil {
			return errors.Wrap(err, "load plan")
		}

		if order.RefundAmount > 0 {
			user.Balance += order.RefundAmount
		}

		if err := tx.Orders.MarkDiscounted(order.SurplusOrderIDs); err != nil {
			return errors.Wrap(err, "mark surplus orders discounted")
		}

		applyEntitlement(order, user, plan, s.now())
		user.SpeedLimit = plan.SpeedLimit

		if err := tx.Users.Update(user); err != nil {
			return errors.Wrap(err, "save user")
		}

		order.Status = model.OrderStatusCompleted
		if err := tx.Orders.Update(order); err != nil {
			return errors.Wrap(err, "save order")
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderStatus) || errors.Is(err, ErrOrderNotPaid) {
			return err
		}
		metrics.FulfillmentFailures.Inc()
		log.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
		}).Error("order activation failed")
		return errActivationFailed
	}
	if done {
		return nil
	}

	metrics.OrdersFulfilled.WithLabelValues(metrics.OrderTypeLabel(order.Type)).Inc()
	log.WithFields(log.Fields{
		"trade_no": order.TradeNo,
		"user_id":  order.UserID,
		"type":     order.Type,
	}).Info("order fulfilled")
	s.publish(ctx, pubsub.EventOrderCompleted, order, user)
	return nil
}

// RedispatchStale 重新投递支付后超过 olderThan 仍未开通的订单，返回投递数量。
// 开通对已完成订单幂等，重复投递只会被跳过。
func (s *FulfillmentService) RedispatchStale(ctx context.Context, olderThan time.Duration) (int, error) {
	orders, err := s.store.WithContext(ctx).Orders.ListProcessingPaidBefore(s.now().Add(-olderThan), redispatchBatch)
	if err != nil {
		return 0, errors.Wrap(err, "list stale processing orders")
	}

	dispatched := 0
	for _, order := range orders {
		if err := s.dispatcher.Push(ctx, &queue.OrderJob{OrderID: order.ID, TradeNo: order.TradeNo}); err != nil {
			return dispatched, errors.WithSecondaryError(ErrDispatchFailed, err)
		}
		dispatched++
	}

	if dispatched > 0 {
		log.WithField("orders", dispatched).Warn("redispatched stale processing orders")
	}
	return dispatched, nil
}

// applyEntitlement 按订单周期修改用户的流量、套餐与到期时间
func applyEntitlement(order *model.Order, user *model.User, plan *model.Plan, now time.Time) {
	switch order.Period {
	case model.PeriodReset:
		resetTraffic(user)
	case model.PeriodOneTime:
		resetTraffic(user)
		assignPlan(user, plan)
		user.ExpiredAt = billing.Never().Ptr()
	default:
		expiry := billing.ExpiryOf(user.ExpiredAt)
		// 升级时旧套餐剩余时间已折算为金额，不再叠加
		if order.Type == model.OrderTypeUpgrade {
			expiry = billing.At(now)
		}
		if expiry.IsNever() || order.Type == model.OrderTypeNewPurchase {
			resetTraffic(user)
		}
		assignPlan(user, plan)
		user.ExpiredAt = billing.At(billing.ExtendByPeriod(order.Period, expiry, now)).Ptr()
	}
}

func resetTraffic(user *model.User) {
	user.U = 0
	user.D = 0
}

func assignPlan(user *model.User, plan *model.Plan) {
	planID, groupID := plan.ID, plan.GroupID
	user.PlanID = &planID
	user.GroupID = &groupID
	user.TransferEnable = plan.TransferBytes()
}

// Cancel 取消待支付订单并退回已抵扣的余额，任一步失败时订单与余额均保持不变
func (s *FulfillmentService) Cancel(ctx context.Context, tradeNo string) error {
	var cancelled *model.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.Orders.GetByTradeNoForUpdate(tradeNo)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if order.Status != model.OrderStatusPending {
			return ErrOrderNotCancellable
		}

		order.Status = model.OrderStatusCancelled
		if err := tx.Orders.Update(order); err != nil {
			return errors.Wrap(err, "save order")
		}

		if order.BalanceAmount > 0 {
			if err := s.users.addBalanceTx(tx, order.UserID, order.BalanceAmount); err != nil {
				return err
			}
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return err
	}

	metrics.OrdersCancelled.Inc()
	s.publish(ctx, pubsub.EventOrderCancelled, cancelled, nil)
	return nil
}

// publish 事件发布失败只记录日志，不影响订单结果
func (s *FulfillmentService) publish(ctx context.Context, eventType string, order *model.Order, user *model.User) {
	if s.publisher == nil {
		return
	}
	event := &pubsub.OrderEvent{
		Type:      eventType,
		UserID:    order.UserID,
		OrderID:   order.ID,
		TradeNo:   order.TradeNo,
		PlanID:    order.PlanID,
		OrderType: order.Type,
	}
	if user != nil {
		event.TransferEnable = user.TransferEnable
		event.ExpiredAt = user.ExpiredAt
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		log.WithError(err).WithField("trade_no", order.TradeNo).Warn("publish order event failed")
	}
}
