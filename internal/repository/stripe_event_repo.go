package repository

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/matcharestock/internal/model"
)

type StripeEventRepository struct {
	db *gorm.DB
}

func NewStripeEventRepository(db *gorm.DB) *StripeEventRepository {
	return &StripeEventRepository{db: db}
}

func (r *StripeEventRepository) Exists(eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.StripeEvent{}).Where("event_id = ?", eventID).Count(&count).Error
	return count > 0, err
}

// Record 记录已处理的事件，重复记录会被忽略
func (r *StripeEventRepository) Record(eventID, eventType string, payload []byte, at time.Time) error {
	ev := &model.StripeEvent{
		EventID:     eventID,
		Type:        eventType,
		Payload:     datatypes.JSON(payload),
		ProcessedAt: at,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(ev).Error
}
