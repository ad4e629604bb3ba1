package worker

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultPopTimeout = 5 * time.Second

// Source 阻塞获取任务，超时返回 nil
type Source[T any] interface {
	Pop(ctx context.Context, timeout time.Duration) (*T, error)
}

// Pool 固定数量的 worker 从同一队列取任务处理
type Pool[T any] struct {
	name       string
	source     Source[T]
	handle     func(ctx context.Context, job *T) error
	workers    int
	popTimeout time.Duration
}

func NewPool[T any](name string, source Source[T], workers int, handle func(ctx context.Context, job *T) error) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[T]{
		name:       name,
		source:     source,
		handle:     handle,
		workers:    workers,
		popTimeout: defaultPopTimeout,
	}
}

// Run 阻塞直到 ctx 结束且所有 worker 退出
func (p *Pool[T]) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}

	log.WithFields(log.Fields{"pool": p.name, "workers": p.workers}).Info("worker pool started")
	wg.Wait()
	log.WithField("pool", p.name).Info("worker pool stopped")
}

func (p *Pool[T]) loop(ctx context.Context, workerID int) {
	logger := log.WithFields(log.Fields{"pool": p.name, "worker": workerID})
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.source.Pop(ctx, p.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Warn("failed to pop job")
			continue
		}
		if job == nil {
			continue // 超时，继续等待
		}

		// 处理器自行记录失败原因
		_ = p.handle(ctx, job)
	}
}
