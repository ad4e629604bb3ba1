package cron

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/pkg/stat"
)

// Flusher 将一个统计窗口写入数据库
type Flusher interface {
	Flush(ctx context.Context, window time.Time) error
}

// sweep 按固定间隔执行的补偿任务
type sweep struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

type Service struct {
	flusher  Flusher
	interval time.Duration
	sweeps   []sweep
	now      func() time.Time
	stopChan chan struct{}
}

func NewService(flusher Flusher, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		flusher:  flusher,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// AddSweep 注册补偿任务，需在 Start 之前调用
func (s *Service) AddSweep(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.sweeps = append(s.sweeps, sweep{name: name, interval: interval, fn: fn})
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runDailyFlush()
	go s.runPeriodicFlush()
	for _, sw := range s.sweeps {
		go s.runSweep(sw)
	}
	log.WithFields(log.Fields{
		"interval": s.interval,
		"sweeps":   len(s.sweeps),
	}).Info("cron service started")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Info("cron service stopped")
}

// runDailyFlush 每日零点后补写前一天的窗口
func (s *Service) runDailyFlush() {
	now := s.now()
	nextMidnight := stat.DayStart(now).AddDate(0, 0, 1)
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.FlushPrevious()
			now := s.now()
			timer.Reset(stat.DayStart(now).AddDate(0, 0, 1).Sub(now))
		}
	}
}

// runPeriodicFlush 按间隔写入当天的窗口
func (s *Service) runPeriodicFlush() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.FlushCurrent()
		}
	}
}

func (s *Service) runSweep(sw sweep) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sw.interval)
			if err := sw.fn(ctx); err != nil {
				log.WithError(err).WithField("sweep", sw.name).Error("cron sweep failed")
			}
			cancel()
		}
	}
}

// FlushCurrent 写入当天窗口
func (s *Service) FlushCurrent() {
	s.flush(stat.DayStart(s.now()))
}

// FlushPrevious 写入前一天窗口
func (s *Service) FlushPrevious() {
	s.flush(stat.DayStart(s.now()).AddDate(0, 0, -1))
}

func (s *Service) flush(window time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.flusher.Flush(ctx, window); err != nil {
		log.WithError(err).WithField("window", window.Unix()).Error("stat flush failed")
	}
}
