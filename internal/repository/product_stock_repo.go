package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/matcharestock/internal/model"
)

// 单个商品上报的处理动作
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// ObserveResult is the outcome of recording one scraper observation.
type ObserveResult struct {
	Action       string
	Restocked    bool
	Notification *model.RestockNotification
}

type ProductStockRepository struct {
	db *gorm.DB
}

func NewProductStockRepository(db *gorm.DB) *ProductStockRepository {
	return &ProductStockRepository{db: db}
}

// Observe records obs (keyed by StockURL) at obs.LastChecked.
//
// A restock fires when the product is new and in stock, or when the stored
// is_in_stock flips false→true. The flip is a conditional update on the
// previously read value, so of two overlapping writers only one sees the
// edge. The RestockNotification row is written in the same transaction.
func (r *ProductStockRepository) Observe(ctx context.Context, obs *model.ProductStock) (*ObserveResult, error) {
	now := obs.LastChecked
	result := &ObserveResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := *obs
		row.ID = 0
		if row.IsInStock {
			row.StockChangeDetectedAt = &now
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			result.Action = ActionCreated
			result.Restocked = row.IsInStock
			return r.appendNotification(tx, obs, result)
		}

		var existing model.ProductStock
		if err := tx.Where("stock_url = ?", obs.StockURL).First(&existing).Error; err != nil {
			return err
		}
		result.Action = ActionUpdated

		if err := tx.Model(&model.ProductStock{}).
			Where("id = ?", existing.ID).
			Updates(metadataFields(obs)).Error; err != nil {
			return err
		}

		if existing.IsInStock == obs.IsInStock {
			return nil
		}

		fields := map[string]interface{}{"is_in_stock": obs.IsInStock}
		if obs.IsInStock {
			fields["stock_change_detected_at"] = now
		}
		flip := tx.Model(&model.ProductStock{}).
			Where("id = ? AND is_in_stock = ?", existing.ID, existing.IsInStock).
			Updates(fields)
		if flip.Error != nil {
			return flip.Error
		}
		// RowsAffected == 0 means a concurrent writer already applied this edge
		if flip.RowsAffected == 1 && obs.IsInStock {
			result.Restocked = true
			return r.appendNotification(tx, obs, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ProductStockRepository) appendNotification(tx *gorm.DB, obs *model.ProductStock, result *ObserveResult) error {
	if !result.Restocked {
		return nil
	}
	n := &model.RestockNotification{
		Brand:       obs.Brand,
		ProductName: obs.ProductName,
		ProductURL:  obs.StockURL,
		CreatedAt:   obs.LastChecked,
	}
	if err := tx.Create(n).Error; err != nil {
		return err
	}
	result.Notification = n
	return nil
}

// metadataFields are refreshed on every observation. is_in_stock is not.
func metadataFields(obs *model.ProductStock) map[string]interface{} {
	fields := map[string]interface{}{
		"brand":        obs.Brand,
		"product_name": obs.ProductName,
		"last_checked": obs.LastChecked,
	}
	if obs.StockStatus != "" {
		fields["stock_status"] = obs.StockStatus
	}
	if obs.PriceText != "" {
		fields["price_text"] = obs.PriceText
	}
	if obs.Price.Valid {
		fields["price"] = obs.Price
	}
	if obs.Confidence != nil {
		fields["confidence"] = *obs.Confidence
	}
	return fields
}

// List 按品牌列出商品，brand 为空时列出全部
func (r *ProductStockRepository) List(brand string) ([]model.ProductStock, error) {
	var products []model.ProductStock
	q := r.db.Model(&model.ProductStock{})
	if brand != "" {
		q = q.Where("brand = ?", brand)
	}
	err := q.Order("brand").Order("product_name").Find(&products).Error
	return products, err
}
