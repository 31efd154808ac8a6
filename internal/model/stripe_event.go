package model

import (
	"time"

	"gorm.io/datatypes"
)

// StripeEvent 已处理的 Stripe webhook 事件，用于去重
type StripeEvent struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	EventID     string         `gorm:"size:100;uniqueIndex;not null" json:"event_id"`
	Type        string         `gorm:"size:100;not null;index" json:"type"`
	Payload     datatypes.JSON `json:"payload"`
	ProcessedAt time.Time      `gorm:"not null" json:"processed_at"`
}

func (StripeEvent) TableName() string {
	return "stripe_webhook_events"
}

// AllModels lists every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&PaymentSubscription{},
		&BrandSubscription{},
		&ProductStock{},
		&RestockNotification{},
		&StripeEvent{},
	}
}
