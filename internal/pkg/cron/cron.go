package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qs3c/matcharestock/internal/model/dto"
)

// Processor runs one notification processing pass.
type Processor interface {
	ProcessPending(ctx context.Context) (*dto.ProcessResult, error)
}

type Service struct {
	processor Processor
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewService(processor Processor, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{
		processor: processor,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start 启动定时扫描
func (s *Service) Start() {
	s.wg.Add(1)
	go s.runSweep()
	slog.Info("cron service started", "sweep_interval", s.interval.String())
}

// Stop 停止定时任务并等待当前扫描结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	slog.Info("cron service stopped")
}

// runSweep 周期性重新扫描未发送的通知
func (s *Service) runSweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	result, err := s.processor.ProcessPending(ctx)
	if err != nil {
		slog.Error("notification sweep failed", "error", err)
		return
	}
	if result.TotalPending > 0 {
		slog.Info("notification sweep finished",
			"run_id", result.RunID,
			"total_pending", result.TotalPending,
			"brands_notified", result.BrandsNotified,
			"failures", result.Failures)
	}
}

// RunNow 立即执行一次扫描（用于测试或手动触发）
func (s *Service) RunNow(ctx context.Context) (*dto.ProcessResult, error) {
	slog.Info("manual notification sweep triggered")
	return s.processor.ProcessPending(ctx)
}
