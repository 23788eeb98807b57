package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareCompanion/config"
	"CareCompanion/internal/model"
	"CareCompanion/internal/reminder"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
)

// OverdueService 没有会话在展示时，由调度器或延迟消息触发漏服判定
type OverdueService struct {
	overdueAfter time.Duration
}

var (
	overdueService *OverdueService
	overdueOnce    sync.Once
)

func Overdue() *OverdueService {
	overdueOnce.Do(func() {
		overdueService = &OverdueService{overdueAfter: config.Cfg.ReminderOverdueAfter}
	})
	return overdueService
}

// ResolveOverdue 延迟消息到期时调用，实例不存在或已处理时返回 false
func (s *OverdueService) ResolveOverdue(ctx context.Context, occurrenceID int64, now time.Time) (bool, error) {
	db := database.DB()
	if db == nil {
		return false, errors.ErrDatabaseConnectionNil
	}

	occ, err := repository.NewReminderRepository(db).GetOccurrence(ctx, occurrenceID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load occurrence %d: %w", occurrenceID, err)
	}
	return s.ResolveOccurrence(ctx, occ, now)
}

// ResolveOccurrence 实例仍可操作且已越过 overdueAfter 时按漏服处理。
// 与患者端会话并发时由 check-and-set 保证只有一方写入终态。
func (s *OverdueService) ResolveOccurrence(ctx context.Context, occ *model.ReminderOccurrence, now time.Time) (bool, error) {
	if !reminder.Status(occ.Status).Actionable() {
		return false, nil
	}
	if occ.Reminder != nil && !occ.Reminder.Enabled {
		return false, nil
	}
	if now.Before(occ.NextDueTime.Add(s.overdueAfter)) {
		// 延后过的实例还没到新的期限
		return false, nil
	}

	rt, err := newPatientRuntime(ctx, occ.PatientID)
	if err != nil {
		return false, err
	}

	applied, err := rt.dispatcher.MissedDose(ctx, repository.ToOccurrence(*occ), reminder.ReasonOverdue, now)
	if err != nil {
		return false, err
	}
	if applied {
		logger.Logger.Info("Overdue occurrence resolved as missed",
			zap.Int64("occurrence_id", occ.ID),
			zap.Int64("patient_id", occ.PatientID),
		)
	}
	return applied, nil
}
