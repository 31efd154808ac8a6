package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/matcharestock/internal/model"
)

type BrandSubscriptionRepository struct {
	db *gorm.DB
}

func NewBrandSubscriptionRepository(db *gorm.DB) *BrandSubscriptionRepository {
	return &BrandSubscriptionRepository{db: db}
}

// ListActiveBrands 返回用户当前订阅的品牌
func (r *BrandSubscriptionRepository) ListActiveBrands(userID int64) ([]string, error) {
	brands := []string{}
	err := r.db.Model(&model.BrandSubscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("brand").
		Pluck("brand", &brands).Error
	return brands, err
}

// Toggle creates the (user, brand) row as active or flips is_active.
// The flip is conditional on the value that was read so concurrent
// toggles cannot both apply the same transition.
func (r *BrandSubscriptionRepository) Toggle(userID int64, brand, email string) (bool, error) {
	var active bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		sub, err := r.insertActive(tx, userID, brand, email)
		if err != nil {
			return err
		}
		if sub == nil {
			active = true
			return nil
		}

		res := tx.Model(&model.BrandSubscription{}).
			Where("id = ? AND is_active = ?", sub.ID, sub.IsActive).
			Updates(map[string]interface{}{"is_active": !sub.IsActive, "email": email})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			active = !sub.IsActive
			return nil
		}

		// 其他请求已经翻转，返回当前值
		var cur model.BrandSubscription
		if err := tx.Where("id = ?", sub.ID).First(&cur).Error; err != nil {
			return err
		}
		active = cur.IsActive
		return nil
	})
	return active, err
}

// Activate 确保订阅为激活状态，返回调用前是否已激活
func (r *BrandSubscriptionRepository) Activate(userID int64, brand, email string) (bool, error) {
	var already bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		sub, err := r.insertActive(tx, userID, brand, email)
		if err != nil || sub == nil {
			return err
		}
		if sub.IsActive {
			already = true
			return nil
		}
		return tx.Model(&model.BrandSubscription{}).
			Where("id = ?", sub.ID).
			Updates(map[string]interface{}{"is_active": true, "email": email}).Error
	})
	return already, err
}

// insertActive inserts an active row. It returns nil when the insert won,
// otherwise the existing row.
func (r *BrandSubscriptionRepository) insertActive(tx *gorm.DB, userID int64, brand, email string) (*model.BrandSubscription, error) {
	sub := &model.BrandSubscription{UserID: userID, Brand: brand, Email: email, IsActive: true}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(sub)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return nil, nil
	}

	var existing model.BrandSubscription
	err := tx.Where("user_id = ? AND brand = ?", userID, brand).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("subscription row vanished during toggle")
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// ListActiveEmails 返回品牌的订阅者邮箱（去重）
func (r *BrandSubscriptionRepository) ListActiveEmails(brand string) ([]string, error) {
	var emails []string
	err := r.db.Model(&model.BrandSubscription{}).
		Where("brand = ? AND is_active = ? AND email <> ''", brand, true).
		Distinct().
		Order("email").
		Pluck("email", &emails).Error
	return emails, err
}

// ListActiveUserIDs 返回品牌的订阅用户 id，用于实时推送
func (r *BrandSubscriptionRepository) ListActiveUserIDs(brand string) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.BrandSubscription{}).
		Where("brand = ? AND is_active = ?", brand, true).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}
