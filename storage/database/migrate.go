package database

import (
	"CareCompanion/internal/model"
	"CareCompanion/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate 运行数据库迁移，创建所有表
func Migrate() error {
	db := DB()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.User{},
		&model.Reminder{},
		&model.ReminderOccurrence{},
		&model.ReminderLog{},
		&model.ReminderCompletion{},
		&model.UsagePattern{},
		&model.CaregiverAlert{},
		&model.ActivityFeedEntry{},
		&model.Medication{},
		&model.NotificationTask{},
		&model.ContactAttempt{},
	)

	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
