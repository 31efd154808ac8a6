package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStock is the last known state of one tracked product, keyed by its URL.
type ProductStock struct {
	ID                    int64               `gorm:"primaryKey" json:"id"`
	Brand                 string              `gorm:"size:100;not null;index" json:"brand"`
	ProductName           string              `gorm:"size:255;not null" json:"product_name"`
	StockURL              string              `gorm:"column:stock_url;size:500;uniqueIndex;not null" json:"stock_url"`
	IsInStock             bool                `gorm:"not null;default:false" json:"is_in_stock"`
	StockStatus           string              `gorm:"size:50" json:"stock_status,omitempty"`
	PriceText             string              `gorm:"size:50" json:"price_text,omitempty"`
	Price                 decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"price"`
	Confidence            *float64            `json:"confidence,omitempty"`
	LastChecked           time.Time           `gorm:"not null" json:"last_checked"`
	StockChangeDetectedAt *time.Time          `json:"stock_change_detected_at,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

func (ProductStock) TableName() string {
	return "product_stock"
}
