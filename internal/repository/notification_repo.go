package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *model.RestockNotification) error {
	return r.db.Create(n).Error
}

// ListPending 返回 since 之后创建的未发送通知，按创建时间排序
func (r *NotificationRepository) ListPending(ctx context.Context, since time.Time) ([]model.RestockNotification, error) {
	var rows []model.RestockNotification
	err := r.db.WithContext(ctx).
		Where("email_sent = ? AND created_at >= ?", false, since.UTC()).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// MarkSent 标记为已发送并记录实际通知人数
func (r *NotificationRepository) MarkSent(ctx context.Context, ids []int64, notified int, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.RestockNotification{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"email_sent":           true,
			"subscribers_notified": notified,
			"sent_at":              at.UTC(),
		}).Error
}

// MarkFailed 重置为未发送，等待下一次扫描重试
func (r *NotificationRepository) MarkFailed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.RestockNotification{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"email_sent":           false,
			"subscribers_notified": 0,
			"sent_at":              nil,
		}).Error
}

func (r *NotificationRepository) CountPending(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.RestockNotification{}).
		Where("email_sent = ? AND created_at >= ?", false, since.UTC()).
		Count(&count).Error
	return count, err
}
