package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestNewQueue(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue[OrderJob](client, "test_queue")

	assert.NotNil(t, q)
	assert.Equal(t, "test_queue", q.Name())
	assert.Equal(t, client, q.client)
}

func TestQueue_Push(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("push single message", func(t *testing.T) {
		q := NewQueue[OrderJob](client, "test_queue")

		err := q.Push(ctx, &OrderJob{OrderID: 1, TradeNo: "abc"})
		require.NoError(t, err)

		length, err := q.Length(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), length)
	})

	t.Run("push multiple messages", func(t *testing.T) {
		q := NewQueue[OrderJob](client, "test_queue2")

		for i := 0; i < 5; i++ {
			err := q.Push(ctx, &OrderJob{OrderID: int64(i)})
			require.NoError(t, err)
		}

		length, err := q.Length(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), length)
	})
}

func TestQueue_Pop(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("pop FIFO order", func(t *testing.T) {
		q := NewQueue[OrderJob](client, "test_fifo_queue")

		for i := 1; i <= 3; i++ {
			err := q.Push(ctx, &OrderJob{OrderID: int64(i)})
			require.NoError(t, err)
		}

		for i := 1; i <= 3; i++ {
			result, err := q.Pop(ctx, time.Second)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, int64(i), result.OrderID)
		}
	})

	t.Run("traffic job keeps deltas", func(t *testing.T) {
		q := NewQueue[TrafficJob](client, "test_traffic_queue")

		job := &TrafficJob{
			ServerID:   7,
			ServerType: "vmess",
			Rate:       1.5,
			Deltas: []TrafficDelta{
				{UserID: 1, U: 100, D: 200},
				{UserID: 2, U: 300, D: 400},
			},
		}
		require.NoError(t, q.Push(ctx, job))

		result, err := q.Pop(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, job.ServerID, result.ServerID)
		assert.Equal(t, job.Rate, result.Rate)
		assert.Equal(t, job.Deltas, result.Deltas)
	})

	t.Run("pop from empty queue times out", func(t *testing.T) {
		q := NewQueue[OrderJob](client, "test_empty_queue")

		result, err := q.Pop(ctx, 10*time.Millisecond)

		// miniredis 对 BRPop 超时的处理与真实 Redis 不同，只检查无数据
		if err == nil {
			assert.Nil(t, result)
		}
	})
}

func TestQueue_Length(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	q := NewQueue[OrderJob](client, "test_length_ops")

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(ctx, &OrderJob{OrderID: int64(i)}))
	}

	_, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)

	length, err = q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestQueue_MultipleQueues(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	q1 := NewQueue[OrderJob](client, "queue_1")
	q2 := NewQueue[OrderJob](client, "queue_2")

	require.NoError(t, q1.Push(ctx, &OrderJob{OrderID: 1}))
	require.NoError(t, q2.Push(ctx, &OrderJob{OrderID: 2}))

	result1, _ := q1.Pop(ctx, time.Second)
	result2, _ := q2.Pop(ctx, time.Second)

	assert.Equal(t, int64(1), result1.OrderID)
	assert.Equal(t, int64(2), result2.OrderID)
}
