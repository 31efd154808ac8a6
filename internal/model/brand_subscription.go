package model

import (
	"time"
)

// BrandSubscription 用户对某个品牌的补货提醒订阅
type BrandSubscription struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_user_brand" json:"user_id"`
	Brand     string    `gorm:"size:100;not null;uniqueIndex:idx_user_brand;index" json:"brand"`
	Email     string    `gorm:"size:255" json:"email"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BrandSubscription) TableName() string {
	return "user_subscriptions"
}
