package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/queue"
)

// 通知触发模式
const (
	DispatchQueue  = "queue"
	DispatchInline = "inline"
)

// Dispatcher hands detected restocks to notification processing.
type Dispatcher interface {
	Dispatch(ctx context.Context, brands []string, restocks int) error
}

// PendingProcessor runs one notification processing pass.
type PendingProcessor interface {
	ProcessPending(ctx context.Context) (*dto.ProcessResult, error)
}

// QueueDispatcher enqueues a processing request for cmd/worker.
type QueueDispatcher struct {
	queue *queue.Queue
}

func NewQueueDispatcher(q *queue.Queue) *QueueDispatcher {
	return &QueueDispatcher{queue: q}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, brands []string, restocks int) error {
	return d.queue.Push(ctx, &queue.NotificationMessage{
		Reason:   queue.ReasonRestock,
		Brands:   brands,
		Restocks: restocks,
	})
}

// InlineDispatcher processes pending notifications before returning.
type InlineDispatcher struct {
	processor PendingProcessor
}

func NewInlineDispatcher(p PendingProcessor) *InlineDispatcher {
	return &InlineDispatcher{processor: p}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, brands []string, restocks int) error {
	result, err := d.processor.ProcessPending(ctx)
	if err != nil {
		return err
	}
	slog.Info("inline notification run finished",
		"run_id", result.RunID,
		"brands_notified", result.BrandsNotified,
		"failures", result.Failures)
	return nil
}

// NewDispatcher 根据配置选择触发方式
func NewDispatcher(mode string, q *queue.Queue, p PendingProcessor) (Dispatcher, error) {
	switch mode {
	case DispatchQueue, "":
		return NewQueueDispatcher(q), nil
	case DispatchInline:
		return NewInlineDispatcher(p), nil
	default:
		return nil, fmt.Errorf("unknown dispatch mode %q", mode)
	}
}
