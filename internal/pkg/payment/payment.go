// Package payment wraps the Stripe API behind a small gateway interface.
package payment

import (
	"context"
	"time"
)

// Subscription is the part of a Stripe subscription the service stores.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	UserID             string // metadata user_id
}

// CheckoutRequest 创建结账会话的参数
type CheckoutRequest struct {
	CustomerID string
	UserID     int64
	SuccessURL string
	CancelURL  string
}

// Gateway is implemented by StripeGateway and by test fakes.
type Gateway interface {
	CreateCustomer(ctx context.Context, email string, userID int64) (string, error)
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CancelSubscription(ctx context.Context, id string) error
}
