package model

import (
	"time"
)

// RestockNotification is an append-only record of one restock event.
// Only EmailSent, SubscribersNotified and SentAt change after insert.
type RestockNotification struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	Brand               string     `gorm:"size:100;not null;index" json:"brand"`
	ProductName         string     `gorm:"size:255;not null" json:"product_name"`
	ProductURL          string     `gorm:"size:500" json:"product_url"`
	EmailSent           bool       `gorm:"not null;default:false;index:idx_pending,priority:1" json:"email_sent"`
	SubscribersNotified int        `gorm:"not null;default:0" json:"subscribers_notified"`
	CreatedAt           time.Time  `gorm:"index:idx_pending,priority:2" json:"created_at"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
}

func (RestockNotification) TableName() string {
	return "restock_notifications"
}
