package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSubscription_Entitlement(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -10)
	end := now.AddDate(0, 0, 20)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name       string
		sub        PaymentSubscription
		wantActive bool
		wantReason string
	}{
		{"active in period", PaymentSubscription{Status: "active", CurrentPeriodStart: &start, CurrentPeriodEnd: &end}, true, "Active subscription"},
		{"trialing in period", PaymentSubscription{Status: "trialing", CurrentPeriodStart: &start, CurrentPeriodEnd: &end}, true, "Active subscription"},
		{"canceled", PaymentSubscription{Status: "canceled", CurrentPeriodStart: &start, CurrentPeriodEnd: &end}, false, "Invalid status: canceled"},
		{"past due", PaymentSubscription{Status: "past_due", CurrentPeriodStart: &start, CurrentPeriodEnd: &end}, false, "Invalid status: past_due"},
		{"missing dates", PaymentSubscription{Status: "active"}, false, "Missing period dates"},
		{"not started", PaymentSubscription{Status: "active", CurrentPeriodStart: &future, CurrentPeriodEnd: &end}, false, "Subscription not yet started"},
		{"expired", PaymentSubscription{Status: "active", CurrentPeriodStart: &start, CurrentPeriodEnd: &past}, false, "Subscription period expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := tt.sub.Entitlement(now)
			assert.Equal(t, tt.wantActive, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestIsPremiumStatus(t *testing.T) {
	assert.True(t, IsPremiumStatus(PaymentStatusActive))
	assert.True(t, IsPremiumStatus(PaymentStatusTrialing))
	assert.False(t, IsPremiumStatus(PaymentStatusPastDue))
	assert.False(t, IsPremiumStatus(PaymentStatusCanceled))
	assert.False(t, IsPremiumStatus(""))
}

func TestCurrentSubscription(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -10)
	end := now.AddDate(0, 0, 20)
	later := now.AddDate(0, 1, 0)
	past := now.AddDate(0, 0, -1)

	assert.Nil(t, CurrentSubscription(nil, now))

	t.Run("entitled row wins over a newer canceled row", func(t *testing.T) {
		subs := []PaymentSubscription{
			{ID: 1, StripeSubscriptionID: "sub_new", Status: "active", CurrentPeriodStart: &start, CurrentPeriodEnd: &end, UpdatedAt: now.Add(-time.Hour)},
			{ID: 2, StripeSubscriptionID: "sub_old", Status: "canceled", CurrentPeriodStart: &start, CurrentPeriodEnd: &end, UpdatedAt: now},
		}
		assert.Equal(t, "sub_new", CurrentSubscription(subs, now).StripeSubscriptionID)
	})

	t.Run("latest period end among entitled rows", func(t *testing.T) {
		subs := []PaymentSubscription{
			{ID: 1, StripeSubscriptionID: "sub_a", Status: "active", CurrentPeriodStart: &start, CurrentPeriodEnd: &later, UpdatedAt: now.Add(-time.Hour)},
			{ID: 2, StripeSubscriptionID: "sub_b", Status: "trialing", CurrentPeriodStart: &start, CurrentPeriodEnd: &end, UpdatedAt: now},
		}
		assert.Equal(t, "sub_a", CurrentSubscription(subs, now).StripeSubscriptionID)
	})

	t.Run("falls back to most recently updated", func(t *testing.T) {
		subs := []PaymentSubscription{
			{ID: 1, StripeSubscriptionID: "sub_a", Status: "canceled", UpdatedAt: now.Add(-time.Hour)},
			{ID: 2, StripeSubscriptionID: "sub_b", Status: "active", CurrentPeriodStart: &start, CurrentPeriodEnd: &past, UpdatedAt: now},
		}
		assert.Equal(t, "sub_b", CurrentSubscription(subs, now).StripeSubscriptionID)
	})
}

func TestHasPremiumStatus(t *testing.T) {
	assert.False(t, HasPremiumStatus(nil))
	assert.False(t, HasPremiumStatus([]PaymentSubscription{{Status: "canceled"}, {Status: "past_due"}}))
	assert.True(t, HasPremiumStatus([]PaymentSubscription{{Status: "canceled"}, {Status: "trialing"}}))
}
