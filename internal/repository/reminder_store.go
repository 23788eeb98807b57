package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CareCompanion/internal/model"
	"CareCompanion/internal/reminder"
	"CareCompanion/pkg/errors"
)

// 单次刷新最多读取的实例数
const listOccurrenceLimit = 500

// ReminderStore 患者维度的 reminder.Store 实现
type ReminderStore struct {
	db          *gorm.DB
	patientID   int64
	caregiverID *int64
	logger      *zap.Logger
}

var _ reminder.Store = (*ReminderStore)(nil)

func NewReminderStore(db *gorm.DB, patientID int64, caregiverID *int64, logger *zap.Logger) (*ReminderStore, error) {
	if db == nil {
		return nil, errors.ErrDatabaseConnectionNil
	}
	return &ReminderStore{db: db, patientID: patientID, caregiverID: caregiverID, logger: logger}, nil
}

func (s *ReminderStore) ListOccurrences(ctx context.Context, statuses []reminder.Status) ([]reminder.Occurrence, error) {
	enabled := s.db.Model(&model.Reminder{}).Select("id").Where("patient_id = ? AND enabled", s.patientID)

	var rows []model.ReminderOccurrence
	err := s.db.WithContext(ctx).
		Preload("Reminder").
		Where("patient_id = ? AND status IN ? AND reminder_id IN (?)", s.patientID, statusStrings(statuses), enabled).
		Order("next_due_time, id").
		Limit(listOccurrenceLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]reminder.Occurrence, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToOccurrence(r))
	}
	return out, nil
}

// actionable check-and-set 条件：只有仍可操作的实例会被写入
func (s *ReminderStore) actionable(id int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND patient_id = ? AND status IN ?", id, s.patientID, statusStrings(reminder.ActionableStatuses))
	}
}

func (s *ReminderStore) UpdateOccurrenceStatus(ctx context.Context, id int64, status reminder.Status, completedAt *time.Time) (bool, error) {
	updates := map[string]any{"status": string(status)}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}

	res := s.db.WithContext(ctx).Model(&model.ReminderOccurrence{}).Scopes(s.actionable(id)).Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (s *ReminderStore) UpdateOccurrenceNextDue(ctx context.Context, id int64, next time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.ReminderOccurrence{}).Scopes(s.actionable(id)).
		Update("next_due_time", next)
	return res.RowsAffected == 1, res.Error
}

func (s *ReminderStore) AppendLog(ctx context.Context, occ reminder.Occurrence, eventType reminder.EventType, metadata map[string]any) error {
	return s.db.WithContext(ctx).Create(&model.ReminderLog{
		ReminderID:   occ.ReminderID,
		OccurrenceID: occ.ID,
		PatientID:    s.patientID,
		EventType:    string(eventType),
		Metadata:     jsonb(metadata),
	}).Error
}

func (s *ReminderStore) AppendCompletion(ctx context.Context, c reminder.Completion) error {
	return s.db.WithContext(ctx).Create(&model.ReminderCompletion{
		ReminderID:          c.ReminderID,
		OccurrenceID:        c.OccurrenceID,
		PatientID:           s.patientID,
		Method:              c.Method,
		ResponseTimeSeconds: c.ResponseTimeSeconds,
		TriggeredBy:         c.TriggeredBy,
		CompletedAt:         c.CompletedAt,
	}).Error
}

func (s *ReminderStore) AppendUsagePattern(ctx context.Context, p reminder.UsagePattern) error {
	return s.db.WithContext(ctx).Create(&model.UsagePattern{
		PatientID:    s.patientID,
		ActivityType: p.ActivityType,
		HourOfDay:    p.HourOfDay,
		DayOfWeek:    p.DayOfWeek,
		Metadata:     jsonb(p.Metadata),
	}).Error
}

// CreateCaregiverAlert 每个实例至多一条告警，重复创建时返回已有记录
func (s *ReminderStore) CreateCaregiverAlert(ctx context.Context, a reminder.CaregiverAlert) (reminder.CaregiverAlert, error) {
	row := model.CaregiverAlert{
		PatientID:       s.patientID,
		CaregiverID:     s.caregiverID,
		ReminderID:      a.ReminderID,
		OccurrenceID:    a.OccurrenceID,
		AlertType:       string(model.NotificationCategoryMissedDose),
		PatientName:     a.PatientName,
		Label:           a.Label,
		DoseTimeDisplay: a.DoseTimeDisplay,
		Status:          model.CaregiverAlertStatusOpen,
	}
	row.CreatedAt = a.CreatedAt

	db := s.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "occurrence_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return reminder.CaregiverAlert{}, res.Error
	}
	if res.RowsAffected == 0 {
		if err := db.Where("occurrence_id = ?", a.OccurrenceID).First(&row).Error; err != nil {
			return reminder.CaregiverAlert{}, err
		}
	}

	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	return a, nil
}

func (s *ReminderStore) AppendActivityFeedEntry(ctx context.Context, e reminder.ActivityEntry) error {
	return s.db.WithContext(ctx).Create(&model.ActivityFeedEntry{
		PatientID:   s.patientID,
		Description: e.Description,
		OccurredAt:  e.Time,
		Icon:        e.Icon,
		Completed:   e.Completed,
	}).Error
}

func (s *ReminderStore) FindOpenMedicationByNameFragment(ctx context.Context, fragment string) (*reminder.Medication, error) {
	var rows []model.Medication
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND NOT taken", s.patientID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	meds := make([]reminder.Medication, len(rows))
	for i, r := range rows {
		meds[i] = toMedication(r)
	}

	med, matches := reminder.PickMedication(meds, fragment)
	if matches > 1 && s.logger != nil {
		s.logger.Warn("Reminder matched several open medications, using the first",
			zap.Int64("patient_id", s.patientID),
			zap.String("fragment", fragment),
			zap.Int("matches", matches),
			zap.Int64("medication_id", med.ID),
		)
	}
	return med, nil
}

func (s *ReminderStore) MarkMedicationTaken(ctx context.Context, id int64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Medication{}).
		Where("id = ? AND patient_id = ? AND NOT taken", id, s.patientID).
		Updates(map[string]any{"taken": true, "taken_at": at}).Error
}
