package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/qs3c/matcharestock/config"
)

// SMTPSender 通过 SMTP 发送 HTML 邮件，每个收件人一封
type SMTPSender struct {
	cfg      *config.EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg *config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sendHTML(msg.To, msg.Subject, msg.HTML)
}

func (s *SMTPSender) SendBatch(ctx context.Context, msgs []*Message) error {
	var failed []string
	var firstErr error
	for _, m := range msgs {
		if err := s.Send(ctx, m); err != nil {
			failed = append(failed, m.To)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(failed) > 0 {
		return &BatchError{Failed: failed, Err: firstErr}
	}
	return nil
}

// sendHTML 发送 HTML 邮件
func (s *SMTPSender) sendHTML(to, subject, body string) error {
	var msg strings.Builder
	for _, h := range [][2]string{
		{"From", s.cfg.From},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	} {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
