package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CareCompanion/internal/model"
	"CareCompanion/internal/reminder"
)

// ReminderRepository 提醒定义与实例的跨患者操作，供照护端与调度器使用
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, m *model.Reminder) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ReminderRepository) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	var m model.Reminder
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ReminderRepository) ListByPatient(ctx context.Context, patientID int64) ([]model.Reminder, error) {
	var rows []model.Reminder
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("id").Find(&rows).Error
	return rows, err
}

func (r *ReminderRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return r.db.WithContext(ctx).Model(&model.Reminder{}).Where("id = ?", id).Update("enabled", enabled).Error
}

// ListRecurring 启用且带重复规则的提醒
func (r *ReminderRepository) ListRecurring(ctx context.Context) ([]model.Reminder, error) {
	var rows []model.Reminder
	err := r.db.WithContext(ctx).Where("enabled AND schedule <> ''").Order("id").Find(&rows).Error
	return rows, err
}

// InsertOccurrences 按 (reminder_id, scheduled_for) 去重插入，返回新插入数量
func (r *ReminderRepository) InsertOccurrences(ctx context.Context, occs []model.ReminderOccurrence) (int64, error) {
	if len(occs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reminder_id"}, {Name: "scheduled_for"}},
		DoNothing: true,
	}).CreateInBatches(occs, 100)
	return res.RowsAffected, res.Error
}

// SendNow 照护者手动发送：已有可操作实例时重新计时，否则新建一条
func (r *ReminderRepository) SendNow(ctx context.Context, m *model.Reminder, due, at time.Time) (*model.ReminderOccurrence, error) {
	var occ model.ReminderOccurrence

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reminder_id = ? AND status IN ?", m.ID, statusStrings(reminder.ActionableStatuses)).
			Order("next_due_time").
			First(&occ).Error

		switch {
		case err == nil:
			return tx.Model(&occ).Updates(map[string]any{
				"status":        model.OccurrenceStatusSent,
				"next_due_time": due,
				"last_sent_at":  at,
				"send_count":    gorm.Expr("send_count + 1"),
			}).Error
		case err == gorm.ErrRecordNotFound:
			occ = model.ReminderOccurrence{
				ReminderID:   m.ID,
				PatientID:    m.PatientID,
				ScheduledFor: due,
				NextDueTime:  due,
				Status:       model.OccurrenceStatusSent,
				LastSentAt:   &at,
				SendCount:    1,
			}
			return tx.Create(&occ).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	// send_count 由数据库自增，重新读取
	if err := r.db.WithContext(ctx).Preload("Reminder").First(&occ, occ.ID).Error; err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *ReminderRepository) GetOccurrence(ctx context.Context, id int64) (*model.ReminderOccurrence, error) {
	var occ model.ReminderOccurrence
	if err := r.db.WithContext(ctx).Preload("Reminder").First(&occ, id).Error; err != nil {
		return nil, err
	}
	return &occ, nil
}

// ListOverdue 到期时间早于 cutoff 仍未处理的实例，只看启用的提醒
func (r *ReminderRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.ReminderOccurrence, error) {
	enabled := r.db.Model(&model.Reminder{}).Select("id").Where("enabled")

	var rows []model.ReminderOccurrence
	err := r.db.WithContext(ctx).
		Preload("Reminder").
		Where("status IN ? AND next_due_time < ? AND reminder_id IN (?)",
			statusStrings(reminder.ActionableStatuses), cutoff, enabled).
		Order("next_due_time, id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
