package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qs3c/matcharestock/config"
)

// Message 单封邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers email through a provider. SendBatch makes at most one
// provider call; callers keep batches within config.MaxEmailBatchSize.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	SendBatch(ctx context.Context, msgs []*Message) error
}

// BatchError reports the recipients a batch failed to reach.
// Providers that deliver a batch atomically never return it.
type BatchError struct {
	Failed []string
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to deliver to %d recipient(s): %v", len(e.Failed), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Delivered returns how many messages of a batch reached the provider.
func Delivered(batchSize int, err error) int {
	if err == nil {
		return batchSize
	}
	var be *BatchError
	if errors.As(err, &be) {
		return batchSize - len(be.Failed)
	}
	return 0
}

// NewSender 根据配置选择邮件提供商
func NewSender(cfg *config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendSender(cfg.ResendAPIKey, cfg.From), nil
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "log":
		return NewLogSender(slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// LogSender writes emails to the log instead of sending them. Used for local development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	s.logger.InfoContext(ctx, "email (log provider)", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}

func (s *LogSender) SendBatch(ctx context.Context, msgs []*Message) error {
	to := make([]string, 0, len(msgs))
	for _, m := range msgs {
		to = append(to, m.To)
	}
	s.logger.InfoContext(ctx, "email batch (log provider)", "count", len(msgs), "to", strings.Join(to, ","))
	return nil
}
