package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareCompanion/config"
	"CareCompanion/internal/model"
	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/queue"
	"CareCompanion/internal/reminder"
	"CareCompanion/internal/repository"
	"CareCompanion/internal/schedule"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
)

// ReminderService 照护者管理提醒
type ReminderService struct{}

var (
	reminderService *ReminderService
	reminderOnce    sync.Once
)

func Reminder() *ReminderService {
	reminderOnce.Do(func() {
		reminderService = &ReminderService{}
	})
	return reminderService
}

// validateReminder 校验并规范化创建请求
func validateReminder(req *dto.CreateReminderRequest, now time.Time) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	req.Schedule = strings.TrimSpace(req.Schedule)

	if req.PatientID <= 0 || req.Title == "" || len(req.Title) > 128 || len(req.Message) > 512 {
		return errors.InvalidRequest
	}
	if !reminder.Type(req.Type).Valid() {
		return errors.ReminderTypeInvalid
	}
	if req.DTStart == nil {
		req.DTStart = &now
	}
	if req.Schedule != "" {
		if _, err := schedule.ParseRule(req.Schedule, *req.DTStart); err != nil {
			return errors.RecurrenceRuleInvalid
		}
	}
	return nil
}

func (s *ReminderService) Create(ctx context.Context, caregiverID int64, req dto.CreateReminderRequest) (*dto.ReminderItem, error) {
	if err := validateReminder(&req, time.Now()); err != nil {
		return nil, err
	}

	db := database.DB()
	if _, err := authorizePatient(ctx, db, caregiverID, req.PatientID); err != nil {
		return nil, err
	}

	m := &model.Reminder{
		PatientID:  req.PatientID,
		CreatedBy:  caregiverID,
		Type:       model.ReminderType(req.Type),
		Title:      req.Title,
		Message:    req.Message,
		PhotoURL:   req.PhotoURL,
		Priority:   req.Priority,
		Persistent: req.Persistent,
		Enabled:    true,
		Schedule:   req.Schedule,
		DTStart:    req.DTStart.UTC(),
	}
	if err := repository.NewReminderRepository(db).Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	logger.Logger.Info("Reminder created",
		zap.Int64("reminder_id", m.ID),
		zap.Int64("patient_id", m.PatientID),
		zap.Int64("caregiver_id", caregiverID),
		zap.String("schedule", m.Schedule),
	)
	item := toReminderItem(m)
	return &item, nil
}

func (s *ReminderService) List(ctx context.Context, caregiverID, patientID int64) ([]dto.ReminderItem, error) {
	db := database.DB()
	if _, err := authorizePatient(ctx, db, caregiverID, patientID); err != nil {
		return nil, err
	}

	rows, err := repository.NewReminderRepository(db).ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	items := make([]dto.ReminderItem, 0, len(rows))
	for i := range rows {
		items = append(items, toReminderItem(&rows[i]))
	}
	return items, nil
}

// loadOwned 读取提醒并校验照护关系
func (s *ReminderService) loadOwned(ctx context.Context, db *gorm.DB, caregiverID, reminderID int64) (*model.Reminder, error) {
	m, err := repository.NewReminderRepository(db).Get(ctx, reminderID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder %d: %w", reminderID, err)
	}
	if _, err := authorizePatient(ctx, db, caregiverID, m.PatientID); err != nil {
		if err == errors.NotYourPatient {
			return nil, errors.ReminderNotFound
		}
		return nil, err
	}
	return m, nil
}

// SetEnabled 停用后患者端下一次刷新时不再展示
func (s *ReminderService) SetEnabled(ctx context.Context, caregiverID, reminderID int64, enabled bool) (*dto.ReminderItem, error) {
	db := database.DB()
	m, err := s.loadOwned(ctx, db, caregiverID, reminderID)
	if err != nil {
		return nil, err
	}
	if m.Enabled != enabled {
		if err := repository.NewReminderRepository(db).SetEnabled(ctx, m.ID, enabled); err != nil {
			return nil, fmt.Errorf("failed to update reminder %d: %w", m.ID, err)
		}
		m.Enabled = enabled
	}
	item := toReminderItem(m)
	return &item, nil
}

// SendNow 立即发送：实例在 now+lead 到期，并投递一条超时检查的延迟消息
func (s *ReminderService) SendNow(ctx context.Context, caregiverID, reminderID int64) (*dto.SendReminderResponse, error) {
	db := database.DB()
	m, err := s.loadOwned(ctx, db, caregiverID, reminderID)
	if err != nil {
		return nil, err
	}
	if !m.Enabled {
		return nil, errors.ReminderDisabled
	}

	now := time.Now()
	due := now.Add(config.Cfg.ReminderOneOffLead)
	occ, err := repository.NewReminderRepository(db).SendNow(ctx, m, due, now)
	if err != nil {
		return nil, fmt.Errorf("failed to send reminder %d: %w", m.ID, err)
	}

	delay := time.Until(due.Add(config.Cfg.ReminderOverdueAfter))
	if err := queue.ScheduleOverdueSweep(ctx, occ.PatientID, occ.ID, delay); err != nil {
		// 周期扫描仍会兜底
		logger.Logger.Warn("Failed to schedule overdue sweep for sent reminder",
			zap.Int64("occurrence_id", occ.ID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Reminder sent now",
		zap.Int64("reminder_id", m.ID),
		zap.Int64("occurrence_id", occ.ID),
		zap.Int("send_count", occ.SendCount),
	)

	resp := &dto.SendReminderResponse{
		OccurrenceID: occ.ID,
		ReminderID:   occ.ReminderID,
		NextDueTime:  occ.NextDueTime,
		Status:       string(occ.Status),
		SendCount:    occ.SendCount,
		LastSentAt:   now,
	}
	if occ.LastSentAt != nil {
		resp.LastSentAt = *occ.LastSentAt
	}
	return resp, nil
}

func toReminderItem(m *model.Reminder) dto.ReminderItem {
	return dto.ReminderItem{
		ID:         m.ID,
		PatientID:  m.PatientID,
		Type:       string(m.Type),
		Title:      m.Title,
		Message:    m.Message,
		PhotoURL:   m.PhotoURL,
		Priority:   m.Priority,
		Persistent: m.Persistent,
		Enabled:    m.Enabled,
		Schedule:   m.Schedule,
		DTStart:    m.DTStart,
		CreatedAt:  m.CreatedAt,
	}
}
