package dto

import "time"

// SessionURLResponse 结账或账单门户的跳转地址
type SessionURLResponse struct {
	URL string `json:"url"`
}

// PaymentSubscriptionInfo 返回给前端的订阅信息
type PaymentSubscriptionInfo struct {
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

// PaymentStatusResponse GET /api/payment-subscription-status
type PaymentStatusResponse struct {
	IsSubscribed bool                     `json:"is_subscribed"`
	Reason       string                   `json:"reason"`
	Subscription *PaymentSubscriptionInfo `json:"subscription,omitempty"`
}

// PaymentSubscriptionResponse GET /api/payment-subscription
type PaymentSubscriptionResponse struct {
	HasActivePayment bool                     `json:"has_active_payment"`
	UserType         string                   `json:"user_type"`
	Subscription     *PaymentSubscriptionInfo `json:"subscription,omitempty"`
}
