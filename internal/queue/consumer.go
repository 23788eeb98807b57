package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"CareCompanion/internal/cache"
	"CareCompanion/internal/model"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/mq"
)

// AlertSender 发送漏服短信
type AlertSender interface {
	SendMissedDoseSMS(ctx context.Context, msg model.MissedDoseAlertMessage) error
}

// OverdueResolver 到期检查某个实例，仍未处理则判定漏服
type OverdueResolver interface {
	ResolveOverdue(ctx context.Context, occurrenceID int64, now time.Time) (bool, error)
}

var (
	alertSender     AlertSender
	overdueResolver OverdueResolver
)

// SetAlertSender 在 worker 启动时注入
func SetAlertSender(s AlertSender) {
	alertSender = s
}

func SetOverdueResolver(r OverdueResolver) {
	overdueResolver = r
}

// claim 幂等检查，返回 SkipMessageError 表示已被处理
func claim(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	ok, err := cache.TryMarkMessageProcessing(ctx, messageID)
	if err != nil {
		// redis 不可用时继续处理，可能重复
		logger.Logger.Warn("Failed to check message processed status",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return nil
	}
	if !ok {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", messageID)}
	}
	return nil
}

func settle(ctx context.Context, messageID string, err error) {
	if messageID == "" {
		return
	}
	if err != nil {
		if uerr := cache.UnmarkMessageProcessing(ctx, messageID); uerr != nil {
			logger.Logger.Warn("Failed to unmark message", zap.String("message_id", messageID), zap.Error(uerr))
		}
		return
	}
	if merr := cache.MarkMessageProcessed(ctx, messageID); merr != nil {
		logger.Logger.Warn("Failed to mark message as processed", zap.String("message_id", messageID), zap.Error(merr))
	}
}

func handleMissedDose(ctx context.Context, body []byte) error {
	var msg model.MissedDoseAlertMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.NewNonRetryableError("BAD_PAYLOAD", err.Error(), "invalid missed dose message")
	}
	if alertSender == nil {
		return fmt.Errorf("alert sender is not configured")
	}
	if err := claim(ctx, msg.MessageID); err != nil {
		return err
	}

	logger.Logger.Info("Processing missed dose alert",
		zap.String("message_id", msg.MessageID),
		zap.Int64("alert_id", msg.AlertID),
		zap.Int64("patient_id", msg.PatientID),
	)

	err := alertSender.SendMissedDoseSMS(ctx, msg)
	settle(ctx, msg.MessageID, err)
	return err
}

func handleOverdueSweep(ctx context.Context, body []byte) error {
	var msg model.OverdueSweepMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.NewNonRetryableError("BAD_PAYLOAD", err.Error(), "invalid overdue sweep message")
	}
	if overdueResolver == nil {
		return fmt.Errorf("overdue resolver is not configured")
	}
	if err := claim(ctx, msg.MessageID); err != nil {
		return err
	}

	missed, err := overdueResolver.ResolveOverdue(ctx, msg.OccurrenceID, time.Now())
	settle(ctx, msg.MessageID, err)
	if err != nil {
		return err
	}

	logger.Logger.Info("Overdue sweep handled",
		zap.String("message_id", msg.MessageID),
		zap.Int64("occurrence_id", msg.OccurrenceID),
		zap.Bool("missed", missed),
	)
	return nil
}

// StartMissedDoseConsumer 消费漏服告警并短信通知照护者
func StartMissedDoseConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.QueueMissedDoseSMS,
		ConsumerTag:   "missed_dose_sms_consumer",
		PrefetchCount: 10,
		Handler:       handleMissedDose,
	})
}

// StartOverdueSweepConsumer 消费延迟到期的超时检查
func StartOverdueSweepConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.QueueOverdueSweep,
		ConsumerTag:   "overdue_sweep_consumer",
		PrefetchCount: 20,
		Handler:       handleOverdueSweep,
	})
}

// StartAllConsumers 启动全部消费者，任一退出时记录错误，阻塞到全部退出
func StartAllConsumers(ctx context.Context) {
	consumers := map[string]func(context.Context) error{
		"missed_dose_sms": StartMissedDoseConsumer,
		"overdue_sweep":   StartOverdueSweepConsumer,
	}

	var wg sync.WaitGroup
	for name, start := range consumers {
		wg.Add(1)
		go func(name string, start func(context.Context) error) {
			defer wg.Done()
			for {
				err := start(ctx)
				if ctx.Err() != nil {
					return
				}
				logger.Logger.Error("Consumer stopped, restarting",
					zap.String("consumer", name),
					zap.Error(err),
				)
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}(name, start)
	}
	wg.Wait()
}
