package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"CareCompanion/internal/model"
)

// CaregiverRepository 照护端读取告警、动态与用药记录
type CaregiverRepository struct {
	db *gorm.DB
}

func NewCaregiverRepository(db *gorm.DB) *CaregiverRepository {
	return &CaregiverRepository{db: db}
}

// ListAlerts status 为空时返回全部
func (r *CaregiverRepository) ListAlerts(ctx context.Context, caregiverID int64, status model.CaregiverAlertStatus, limit int) ([]model.CaregiverAlert, error) {
	q := r.db.WithContext(ctx).Where("caregiver_id = ?", caregiverID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []model.CaregiverAlert
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// AcknowledgeAlert 返回 false 表示告警不存在、不属于该照护者或已确认
func (r *CaregiverRepository) AcknowledgeAlert(ctx context.Context, id, caregiverID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CaregiverAlert{}).
		Where("id = ? AND caregiver_id = ? AND status = ?", id, caregiverID, model.CaregiverAlertStatusOpen).
		Updates(map[string]any{
			"status":          model.CaregiverAlertStatusAcknowledged,
			"acknowledged_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *CaregiverRepository) ListActivity(ctx context.Context, patientID int64, limit int) ([]model.ActivityFeedEntry, error) {
	var rows []model.ActivityFeedEntry
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *CaregiverRepository) CreateMedication(ctx context.Context, m *model.Medication) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CaregiverRepository) ListMedications(ctx context.Context, patientID int64) ([]model.Medication, error) {
	var rows []model.Medication
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("id").Find(&rows).Error
	return rows, err
}
