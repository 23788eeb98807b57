package service

// 漏服短信：一条告警对应一个通知任务，每次发送记录一次尝试，基于 alert_id 幂等

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareCompanion/internal/model"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/sms"
	"CareCompanion/pkg/snowflake"
	"CareCompanion/storage/database"
	"CareCompanion/utils"
)

const maxSMSRetries = 3

type NotificationService struct{}

var (
	notificationService *NotificationService
	notificationOnce    sync.Once
)

func Notification() *NotificationService {
	notificationOnce.Do(func() {
		notificationService = &NotificationService{}
	})
	return notificationService
}

func (s *NotificationService) SendMissedDoseSMS(ctx context.Context, msg model.MissedDoseAlertMessage) error {
	db := database.DB()
	if db == nil {
		return errors.ErrDatabaseConnectionNil
	}

	profile, err := loadPatientProfile(ctx, db, msg.PatientID)
	if err != nil {
		return err
	}
	if profile == nil || profile.CaregiverID == nil {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("patient %d has no caregiver", msg.PatientID)}
	}

	caregiver, err := repository.NewUserRepository(db).Get(ctx, *profile.CaregiverID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("caregiver %d not found", *profile.CaregiverID)}
	}
	if err != nil {
		return fmt.Errorf("failed to load caregiver: %w", err)
	}
	if len(caregiver.PhoneCipher) == 0 || caregiver.PhoneHash == nil {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("caregiver %d has no phone", caregiver.ID)}
	}

	task, err := s.ensureTask(ctx, db, msg, caregiver.ID)
	if err != nil {
		return err
	}
	if task.Status == model.NotificationTaskStatusSuccess {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("alert %d already notified", msg.AlertID)}
	}
	if task.RetryCount >= maxSMSRetries {
		return errors.NewNonRetryableError("RETRY_EXHAUSTED", fmt.Sprintf("task %d", task.TaskCode), "missed dose sms")
	}

	phone, err := utils.DecryptPhone(caregiver.PhoneCipher)
	if err != nil {
		return errors.NewNonRetryableError("PHONE_DECRYPT", err.Error(), "caregiver phone")
	}

	resp, sendErr := sms.SendMissedDoseAlert(ctx, phone, sms.MissedDoseParams{
		Name: displayName(msg.PatientName),
		Item: msg.Label,
		Time: msg.DoseTimeDisplay,
	})

	now := time.Now()
	s.recordAttempt(ctx, db, task, caregiver, resp, sendErr, now)

	status := model.NotificationTaskStatusSuccess
	if sendErr != nil {
		status = model.NotificationTaskStatusFailed
	}
	if err := repository.NewNotificationRepository(db).FinishTask(ctx, task.ID, status, now); err != nil {
		logger.Logger.Warn("Failed to update notification task",
			zap.Int64("task_code", task.TaskCode),
			zap.Error(err),
		)
	}

	if sendErr != nil {
		return sendErr
	}

	logger.Logger.Info("Missed dose SMS sent",
		zap.Int64("alert_id", msg.AlertID),
		zap.Int64("caregiver_id", caregiver.ID),
		zap.Int64("task_code", task.TaskCode),
	)
	return nil
}

func (s *NotificationService) ensureTask(ctx context.Context, db *gorm.DB, msg model.MissedDoseAlertMessage, caregiverID int64) (*model.NotificationTask, error) {
	code, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task code: %w", err)
	}

	task := &model.NotificationTask{
		TaskCode:    code,
		AlertID:     msg.AlertID,
		PatientID:   msg.PatientID,
		CaregiverID: caregiverID,
		Category:    model.NotificationCategoryMissedDose,
		Channel:     model.NotificationChannelSMS,
		Payload: model.JSONB{
			"reminder_id":       msg.ReminderID,
			"occurrence_id":     msg.OccurrenceID,
			"label":             msg.Label,
			"dose_time_display": msg.DoseTimeDisplay,
		},
		Status:      model.NotificationTaskStatusProcessing,
		ScheduledAt: time.Now(),
	}

	if _, err := repository.NewNotificationRepository(db).CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create notification task: %w", err)
	}
	return task, nil
}

// recordAttempt 尝试记录失败不影响发送结果
func (s *NotificationService) recordAttempt(ctx context.Context, db *gorm.DB, task *model.NotificationTask, caregiver *model.User, resp *sms.SendResponse, sendErr error, at time.Time) {
	attempt := &model.ContactAttempt{
		TaskID:           task.ID,
		CaregiverID:      caregiver.ID,
		ContactPhoneHash: *caregiver.PhoneHash,
		Channel:          model.NotificationChannelSMS,
		Status:           model.ContactAttemptStatusSuccess,
		AttemptedAt:      at,
	}
	if resp != nil {
		attempt.ResponseCode = &resp.Code
		attempt.ResponseMessage = &resp.Message
	}
	if sendErr != nil {
		attempt.Status = model.ContactAttemptStatusFailed
		if attempt.ResponseMessage == nil {
			m := sendErr.Error()
			if len(m) > 255 {
				m = m[:255]
			}
			attempt.ResponseMessage = &m
		}
	}

	if err := repository.NewNotificationRepository(db).CreateAttempt(ctx, attempt); err != nil {
		logger.Logger.Warn("Failed to record contact attempt",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
	}
}

func displayName(name string) string {
	if name == "" {
		return "Patient"
	}
	return name
}
