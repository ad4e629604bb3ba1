package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

// Queue 基于 Redis 列表的任务队列，消息以 JSON 存储
type Queue[T any] struct {
	client    *redis.Client
	queueName string
}

// OrderJob 订单开通任务，Attempt 为已失败的次数
type OrderJob struct {
	OrderID int64  `json:"order_id"`
	TradeNo string `json:"trade_no"`
	Attempt int    `json:"attempt,omitempty"`
}

// TrafficDelta 单个用户在一次上报中的流量增量（字节）
type TrafficDelta struct {
	UserID int64 `json:"user_id"`
	U      int64 `json:"u"`
	D      int64 `json:"d"`
}

// TrafficJob 节点流量入账任务，Rate 为节点倍率
type TrafficJob struct {
	ServerID   int64          `json:"server_id"`
	ServerType string         `json:"server_type"`
	Rate       float64        `json:"rate"`
	Deltas     []TrafficDelta `json:"deltas"`
}

func NewQueue[T any](client *redis.Client, queueName string) *Queue[T] {
	return &Queue[T]{
		client:    client,
		queueName: queueName,
	}
}

// Push 将任务加入队列
func (q *Queue[T]) Push(ctx context.Context, msg *T) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取任务（阻塞），超时返回 nil
func (q *Queue[T]) Pop(ctx context.Context, timeout time.Duration) (*T, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "pop from queue")
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg T
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, errors.Wrap(err, "unmarshal message")
	}

	return &msg, nil
}

// Length 获取队列长度
func (q *Queue[T]) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}

// Name 队列名
func (q *Queue[T]) Name() string {
	return q.queueName
}
