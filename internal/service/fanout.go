package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/pkg/email"
)

// BatchResult 一次群发的统计
type BatchResult struct {
	Notified      int
	Failed        int
	Batches       int
	FailedBatches int
	Err           error // last batch error
}

// Fanout sends one restock email per recipient in provider-sized chunks.
// Chunks are sent sequentially and paced by a limiter shared by all callers.
type Fanout struct {
	emails    *email.Service
	batchSize int
	limiter   *rate.Limiter
}

func NewFanout(emails *email.Service, batchSize int, delay time.Duration) *Fanout {
	if batchSize <= 0 || batchSize > config.MaxEmailBatchSize {
		batchSize = config.MaxEmailBatchSize
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Fanout{
		emails:    emails,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Chunks 按批次大小切分收件人
func Chunks(recipients []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(recipients); start += size {
		end := start + size
		if end > len(recipients) {
			end = len(recipients)
		}
		out = append(out, recipients[start:end])
	}
	return out
}

// Send renders the brand's restock email and delivers it to recipients.
// A failed chunk is counted and the remaining chunks are still attempted.
func (f *Fanout) Send(ctx context.Context, brand string, products []email.Product, recipients []string) BatchResult {
	var res BatchResult
	if len(recipients) == 0 {
		return res
	}

	msgs, err := f.emails.RestockMessages(brand, products, recipients)
	if err != nil {
		res.Failed = len(recipients)
		res.Err = err
		return res
	}

	sender := f.emails.Sender()
	for start := 0; start < len(msgs); start += f.batchSize {
		end := start + f.batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		chunk := msgs[start:end]
		res.Batches++

		if err := f.limiter.Wait(ctx); err != nil {
			// 上下文取消，剩余批次全部计为失败
			res.Failed += len(msgs) - start
			res.FailedBatches++
			res.Err = err
			return res
		}

		err := sender.SendBatch(ctx, chunk)
		delivered := email.Delivered(len(chunk), err)
		res.Notified += delivered
		res.Failed += len(chunk) - delivered
		if err != nil {
			res.FailedBatches++
			res.Err = err
			slog.Warn("email batch failed",
				"brand", brand,
				"batch", res.Batches,
				"size", len(chunk),
				"delivered", delivered,
				"error", err)
		}
	}
	return res
}

// Outright reports whether nothing was delivered because of an error.
func (r BatchResult) Outright() bool {
	return r.Notified == 0 && r.Err != nil
}
