package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends through the Resend API. A batch is one call to /emails/batch.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// NewResendSenderWithClient 用于测试时注入指向本地服务器的客户端
func NewResendSenderWithClient(client *resend.Client, from string) *ResendSender {
	return &ResendSender{client: client, from: from}
}

func (s *ResendSender) request(msg *Message) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	if _, err := s.client.Emails.SendWithContext(ctx, s.request(msg)); err != nil {
		return fmt.Errorf("resend send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *ResendSender) SendBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	reqs := make([]*resend.SendEmailRequest, 0, len(msgs))
	for _, m := range msgs {
		reqs = append(reqs, s.request(m))
	}
	if _, err := s.client.Batch.SendWithContext(ctx, reqs); err != nil {
		return fmt.Errorf("resend batch of %d: %w", len(msgs), err)
	}
	return nil
}
