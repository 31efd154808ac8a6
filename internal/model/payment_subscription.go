package model

import (
	"fmt"
	"time"
)

// 支付订阅状态
const (
	PaymentStatusActive   = "active"
	PaymentStatusTrialing = "trialing"
	PaymentStatusPastDue  = "past_due"
	PaymentStatusCanceled = "canceled"
)

// PaymentSubscription mirrors the Stripe subscription that grants premium access.
type PaymentSubscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	UserID               int64      `gorm:"not null;index" json:"user_id"`
	StripeCustomerID     string     `gorm:"size:100;index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"size:100;uniqueIndex;not null" json:"stripe_subscription_id"`
	Status               string     `gorm:"size:20;not null;index" json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (PaymentSubscription) TableName() string {
	return "user_payment_subscriptions"
}

// IsPremiumStatus reports whether a Stripe status grants the premium tier.
func IsPremiumStatus(status string) bool {
	return status == PaymentStatusActive || status == PaymentStatusTrialing
}

// Entitlement 计算订阅在 now 时刻是否有效，并返回原因
func (s *PaymentSubscription) Entitlement(now time.Time) (bool, string) {
	if !IsPremiumStatus(s.Status) {
		return false, fmt.Sprintf("Invalid status: %s", s.Status)
	}
	if s.CurrentPeriodStart == nil || s.CurrentPeriodEnd == nil {
		return false, "Missing period dates"
	}
	if now.Before(*s.CurrentPeriodStart) {
		return false, "Subscription not yet started"
	}
	if now.After(*s.CurrentPeriodEnd) {
		return false, "Subscription period expired"
	}
	return true, "Active subscription"
}

// CurrentSubscription picks the row that decides a user's access: the
// entitled row with the latest period end, otherwise the most recently
// updated row. Returns nil for an empty list.
func CurrentSubscription(subs []PaymentSubscription, now time.Time) *PaymentSubscription {
	var entitled, latest *PaymentSubscription
	for i := range subs {
		sub := &subs[i]
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) ||
			(sub.UpdatedAt.Equal(latest.UpdatedAt) && sub.ID > latest.ID) {
			latest = sub
		}
		if ok, _ := sub.Entitlement(now); ok {
			if entitled == nil || sub.CurrentPeriodEnd.After(*entitled.CurrentPeriodEnd) {
				entitled = sub
			}
		}
	}
	if entitled != nil {
		return entitled
	}
	return latest
}

// HasPremiumStatus 任一订阅处于 active/trialing 即为 premium
func HasPremiumStatus(subs []PaymentSubscription) bool {
	for _, sub := range subs {
		if IsPremiumStatus(sub.Status) {
			return true
		}
	}
	return false
}
