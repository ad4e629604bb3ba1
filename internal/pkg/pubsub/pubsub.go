package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

const (
	ChannelOrderEvents = "order_events"
)

// 订单事件类型
const (
	EventOrderPaid      = "order_paid"
	EventOrderCompleted = "order_completed"
	EventOrderCancelled = "order_cancelled"
)

// 事件对应的默认消息
var EventMessages = map[string]string{
	EventOrderPaid:      "订单已支付，正在开通",
	EventOrderCompleted: "订阅已开通",
	EventOrderCancelled: "订单已取消",
}

// OrderEvent 订单状态变更事件，开通成功时携带新的订阅状态
type OrderEvent struct {
	Type           string     `json:"type"`
	UserID         int64      `json:"user_id"`
	OrderID        int64      `json:"order_id"`
	TradeNo        string     `json:"trade_no"`
	PlanID         int64      `json:"plan_id"`
	OrderType      int        `json:"order_type"`
	TransferEnable int64      `json:"transfer_enable,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishOrderEvent 发布订单事件，未填写消息时使用默认消息
func (p *Publisher) PublishOrderEvent(ctx context.Context, event *OrderEvent) error {
	if event.Message == "" {
		event.Message = EventMessages[event.Type]
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}

	return p.client.Publish(ctx, ChannelOrderEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅订单事件，直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*OrderEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelOrderEvents)
	defer pubsub.Close()

	// 等待订阅确认，保证返回前不会丢失随后发布的消息
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}
