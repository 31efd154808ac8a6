package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/matcharestock/internal/model"
)

type PaymentSubscriptionRepository struct {
	db *gorm.DB
}

func NewPaymentSubscriptionRepository(db *gorm.DB) *PaymentSubscriptionRepository {
	return &PaymentSubscriptionRepository{db: db}
}

func (r *PaymentSubscriptionRepository) GetByStripeID(subscriptionID string) (*model.PaymentSubscription, error) {
	var sub model.PaymentSubscription
	err := r.db.Where("stripe_subscription_id = ?", subscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *PaymentSubscriptionRepository) ListByUser(userID int64) ([]model.PaymentSubscription, error) {
	var subs []model.PaymentSubscription
	err := r.db.Where("user_id = ?", userID).Order("id").Find(&subs).Error
	return subs, err
}

// Upsert inserts or overwrites the row keyed by stripe_subscription_id.
func (r *PaymentSubscriptionRepository) Upsert(sub *model.PaymentSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "stripe_customer_id", "status",
			"current_period_start", "current_period_end",
			"cancel_at_period_end", "updated_at",
		}),
	}).Create(sub).Error
}

// UpdateByStripeID 按 Stripe 订阅 id 更新字段，返回受影响行数
func (r *PaymentSubscriptionRepository) UpdateByStripeID(subscriptionID string, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.PaymentSubscription{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(fields)
	return res.RowsAffected, res.Error
}
