package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/queue"
)

// PendingProcessor runs one notification processing pass.
type PendingProcessor interface {
	ProcessPending(ctx context.Context) (*dto.ProcessResult, error)
}

// Processor 处理队列中的通知任务
type Processor struct {
	notifications PendingProcessor
}

// NewProcessor 创建任务处理器
func NewProcessor(notifications PendingProcessor) *Processor {
	return &Processor{notifications: notifications}
}

// Process runs a processing pass for msg. The message only says that work
// exists; the rows to send are read from the database.
func (p *Processor) Process(ctx context.Context, msg *queue.NotificationMessage) (*dto.ProcessResult, error) {
	logger := slog.With("reason", msg.Reason, "brands", msg.Brands, "restocks", msg.Restocks)
	if !msg.EnqueuedAt.IsZero() {
		logger = logger.With("queued_for", time.Since(msg.EnqueuedAt).Round(time.Millisecond))
	}

	result, err := p.notifications.ProcessPending(ctx)
	if err != nil {
		logger.Error("notification processing failed", "error", err)
		return nil, err
	}

	logger.Info("notification job done",
		"run_id", result.RunID,
		"skipped", result.Skipped,
		"total_pending", result.TotalPending,
		"brands_notified", result.BrandsNotified,
		"failures", result.Failures)
	return result, nil
}

// Source 队列抽象，便于测试
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.NotificationMessage, error)
}

// Run starts n pop loops and blocks until ctx is canceled and every loop
// has returned.
func Run(ctx context.Context, src Source, p *Processor, n int, popTimeout time.Duration) {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			loop(ctx, src, p, workerID, popTimeout)
		}(i)
	}
	wg.Wait()
}

func loop(ctx context.Context, src Source, p *Processor, workerID int, popTimeout time.Duration) {
	logger := slog.With("worker", workerID)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			return
		default:
		}

		msg, err := src.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("failed to pop notification job", "error", err)
			// 避免 Redis 故障时空转
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue // 超时，继续等待
		}

		_, _ = p.Process(ctx, msg)
	}
}
