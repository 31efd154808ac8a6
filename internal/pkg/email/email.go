package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Product 邮件中列出的补货商品
type Product struct {
	Name string
	URL  string
}

// Service renders the MatchaRestock emails and hands them to a Sender.
type Service struct {
	sender  Sender
	siteURL string
}

func NewService(sender Sender, siteURL string) *Service {
	return &Service{sender: sender, siteURL: strings.TrimRight(siteURL, "/")}
}

// Sender 返回底层发送器，供批量发送使用
func (s *Service) Sender() Sender {
	return s.sender
}

func (s *Service) dashboardURL() string {
	return s.siteURL + "/dashboard"
}

// SendVerificationCode 发送邮箱验证码
func (s *Service) SendVerificationCode(ctx context.Context, to, code string) error {
	body, err := render(verificationTmpl, map[string]interface{}{"Code": code})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, &Message{To: to, Subject: "Verify your MatchaRestock email", HTML: body})
}

// SendPasswordReset 发送密码重置邮件
func (s *Service) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	body, err := render(passwordResetTmpl, map[string]interface{}{"Link": resetLink})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, &Message{To: to, Subject: "Reset your MatchaRestock password", HTML: body})
}

// SendBrandWelcome confirms a new or reactivated brand subscription.
func (s *Service) SendBrandWelcome(ctx context.Context, to, brand string) error {
	body, err := render(brandWelcomeTmpl, map[string]interface{}{
		"Brand":     brand,
		"Dashboard": s.dashboardURL(),
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, &Message{
		To:      to,
		Subject: fmt.Sprintf("🍵 You're subscribed to %s restock alerts", brand),
		HTML:    body,
	})
}

// RestockSubject 补货邮件标题
func RestockSubject(brand string, products []Product) string {
	switch len(products) {
	case 0:
		return fmt.Sprintf("🍵 %s is back in stock!", brand)
	case 1:
		return fmt.Sprintf("🍵 %s is back in stock for %s!", brand, products[0].Name)
	default:
		return fmt.Sprintf("🍵 %s is back in stock: %d products!", brand, len(products))
	}
}

// RestockMessages renders one restock email per recipient. The body is
// rendered once and shared.
func (s *Service) RestockMessages(brand string, products []Product, recipients []string) ([]*Message, error) {
	body, err := render(restockTmpl, map[string]interface{}{
		"Brand":     brand,
		"Products":  products,
		"Dashboard": s.dashboardURL(),
	})
	if err != nil {
		return nil, err
	}

	subject := RestockSubject(brand, products)
	msgs := make([]*Message, 0, len(recipients))
	for _, to := range recipients {
		msgs = append(msgs, &Message{To: to, Subject: subject, HTML: body})
	}
	return msgs, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
