package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareCompanion/config"
	"CareCompanion/internal/cache"
	"CareCompanion/internal/model"
	"CareCompanion/internal/queue"
	"CareCompanion/internal/reminder"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
)

// loadPatientProfile 经缓存读取患者资料，不存在或不是患者时返回 nil
func loadPatientProfile(ctx context.Context, db *gorm.DB, patientID int64) (*cache.PatientProfile, error) {
	return cache.GetPatientProfile(ctx, patientID, func(ctx context.Context) (*cache.PatientProfile, error) {
		u, err := repository.NewUserRepository(db).Get(ctx, patientID)
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load patient %d: %w", patientID, err)
		}
		if u.Role != model.RolePatient {
			return nil, nil
		}
		return &cache.PatientProfile{
			ID:          u.ID,
			Name:        u.Nickname,
			CaregiverID: u.CaregiverID,
			Timezone:    u.Timezone,
		}, nil
	})
}

func profileLocation(p *cache.PatientProfile) *time.Location {
	if p != nil && p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
	}
	return config.Cfg.Location()
}

// patientRuntime 某个患者的存储与派发器
type patientRuntime struct {
	profile    *cache.PatientProfile
	store      *repository.ReminderStore
	dispatcher *reminder.Dispatcher
}

func newPatientRuntime(ctx context.Context, patientID int64) (*patientRuntime, error) {
	db := database.DB()
	if db == nil {
		return nil, errors.ErrDatabaseConnectionNil
	}

	profile, err := loadPatientProfile(ctx, db, patientID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.ErrUserNotFound
	}

	log := logger.Logger.With(zap.Int64("patient_id", patientID))
	store, err := repository.NewReminderStore(db, patientID, profile.CaregiverID, log)
	if err != nil {
		return nil, err
	}

	dispatcher := reminder.NewDispatcher(store,
		reminder.WithNotifier(queue.NewNotifier(patientID)),
		reminder.WithPatientName(profile.Name),
		reminder.WithLocation(profileLocation(profile)),
		reminder.WithLogger(log),
	)

	return &patientRuntime{profile: profile, store: store, dispatcher: dispatcher}, nil
}

// reminderTiming 从配置读取时间窗口
func reminderTiming() reminder.Timing {
	cfg := config.Cfg
	return reminder.Timing{
		PreDoseWindow: cfg.ReminderPreDoseWindow,
		GracePeriod:   cfg.ReminderGracePeriod,
		DefaultSnooze: cfg.ReminderDefaultSnooze,
		FinalWarning:  cfg.ReminderFinalWarning,
	}
}
