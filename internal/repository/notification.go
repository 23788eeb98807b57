package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CareCompanion/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateTask 同一告警同一渠道只建一个任务，返回 false 表示任务已存在
func (r *NotificationRepository) CreateTask(ctx context.Context, task *model.NotificationTask) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alert_id"}, {Name: "channel"}},
		DoNothing: true,
	}).Create(task)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	err := r.db.WithContext(ctx).Where("alert_id = ? AND channel = ?", task.AlertID, task.Channel).First(task).Error
	return false, err
}

func (r *NotificationRepository) FinishTask(ctx context.Context, id int64, status model.NotificationTaskStatus, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.NotificationTask{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"processed_at": at,
			"retry_count":  gorm.Expr("retry_count + CASE WHEN ? THEN 1 ELSE 0 END", status == model.NotificationTaskStatusFailed),
		}).Error
}

func (r *NotificationRepository) CreateAttempt(ctx context.Context, a *model.ContactAttempt) error {
	return r.db.WithContext(ctx).Create(a).Error
}
