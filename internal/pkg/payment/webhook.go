package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// 处理的事件类型
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	MaxWebhookBodyBytes       = int64(65536)
	checkoutModeSubscription  = "subscription"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event is a verified webhook event.
type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage // data.object
	Body []byte          // full payload as received
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func ParseEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Body: payload}
	if ev.Data != nil {
		out.Raw = ev.Data.Raw
	}
	return out, nil
}

// CheckoutCompleted 结账完成事件中需要的字段
type CheckoutCompleted struct {
	SessionID      string
	Mode           string
	CustomerID     string
	SubscriptionID string
	UserID         string
}

// IsSubscription reports whether the session created a subscription.
func (c *CheckoutCompleted) IsSubscription() bool {
	return c.Mode == checkoutModeSubscription && c.SubscriptionID != ""
}

func DecodeCheckoutSession(raw json.RawMessage) (*CheckoutCompleted, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	out := &CheckoutCompleted{
		SessionID: sess.ID,
		Mode:      string(sess.Mode),
		UserID:    sess.Metadata["user_id"],
	}
	if out.UserID == "" {
		out.UserID = sess.ClientReferenceID
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	return out, nil
}

func DecodeSubscription(raw json.RawMessage) (*Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	return fromStripeSubscription(&sub), nil
}

// DecodeInvoice returns the subscription and customer ids of an invoice.
func DecodeInvoice(raw json.RawMessage) (subscriptionID, customerID string, err error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return "", "", fmt.Errorf("decode invoice: %w", err)
	}
	if inv.Subscription != nil {
		subscriptionID = inv.Subscription.ID
	}
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}
	return subscriptionID, customerID, nil
}
