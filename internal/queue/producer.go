package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CareCompanion/internal/model"
	"CareCompanion/internal/reminder"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/snowflake"
	"CareCompanion/storage/mq"
)

// PublishMissedDoseAlert 发布漏服告警事件，由 worker 发送短信
func PublishMissedDoseAlert(ctx context.Context, msg model.MissedDoseAlertMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextMessageID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("alert_id", msg.AlertID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = id
	}

	if err := mq.PublishMessage(ctx, mq.ExchangeEvents, mq.RoutingMissedDose, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish missed dose alert",
			zap.String("message_id", msg.MessageID),
			zap.Int64("alert_id", msg.AlertID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published missed dose alert",
		zap.String("message_id", msg.MessageID),
		zap.Int64("alert_id", msg.AlertID),
		zap.Int64("patient_id", msg.PatientID),
	)
	return nil
}

// ScheduleOverdueSweep 投递延迟消息，到期后检查该实例是否仍无人处理
func ScheduleOverdueSweep(ctx context.Context, patientID, occurrenceID int64, delay time.Duration) error {
	id, err := snowflake.NextMessageID()
	if err != nil {
		return fmt.Errorf("failed to generate message ID: %w", err)
	}

	msg := model.OverdueSweepMessage{
		MessageID:    id,
		PatientID:    patientID,
		OccurrenceID: occurrenceID,
		ScheduledAt:  time.Now().Add(delay).UTC().Format(time.RFC3339),
		DelaySeconds: int(delay / time.Second),
	}

	if err := mq.PublishDelayedMessage(ctx, mq.ExchangeDelayed, mq.RoutingOverdueSweep, msg.MessageID, delay, msg); err != nil {
		logger.Logger.Error("Failed to schedule overdue sweep",
			zap.Int64("occurrence_id", occurrenceID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Debug("Scheduled overdue sweep",
		zap.String("message_id", msg.MessageID),
		zap.Int64("occurrence_id", occurrenceID),
		zap.Duration("delay", delay),
	)
	return nil
}

// Notifier 通过消息队列把漏服告警交给 worker
type Notifier struct {
	PatientID int64
}

func NewNotifier(patientID int64) *Notifier {
	return &Notifier{PatientID: patientID}
}

func (n *Notifier) NotifyMissedDose(ctx context.Context, alert reminder.CaregiverAlert) error {
	return PublishMissedDoseAlert(ctx, model.MissedDoseAlertMessage{
		AlertID:         alert.ID,
		PatientID:       n.PatientID,
		ReminderID:      alert.ReminderID,
		OccurrenceID:    alert.OccurrenceID,
		PatientName:     alert.PatientName,
		Label:           alert.Label,
		DoseTimeDisplay: alert.DoseTimeDisplay,
		OccurredAt:      alert.CreatedAt.UTC().Format(time.RFC3339),
	})
}

var _ reminder.AlertNotifier = (*Notifier)(nil)
