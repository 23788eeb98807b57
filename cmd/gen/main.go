package main

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"CareCompanion/internal/model"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
)

// 照护端报表用的查询，生成到 internal/repository/query

// OccurrenceQuerier 提醒实例统计
type OccurrenceQuerier interface {
	// ListDueBetween 患者某段时间内到期的实例
	//
	// SELECT * FROM @@table
	// WHERE patient_id = @patientID
	//   AND next_due_time >= @from AND next_due_time < @to
	//   AND deleted_at IS NULL
	// ORDER BY next_due_time, id
	ListDueBetween(patientID int64, from, to string) ([]*gen.T, error)

	// CountByStatus 按状态统计
	//
	// SELECT status, COUNT(*) AS count FROM @@table
	// WHERE patient_id = @patientID AND deleted_at IS NULL
	// GROUP BY status
	CountByStatus(patientID int64) ([]gen.M, error)
}

// CompletionQuerier 完成记录统计
type CompletionQuerier interface {
	// AverageResponseByType 各提醒类型的平均响应秒数
	//
	// SELECT r.type, AVG(c.response_time_seconds) AS avg_seconds, COUNT(*) AS total
	// FROM @@table c
	// JOIN reminders r ON r.id = c.reminder_id
	// WHERE c.patient_id = @patientID
	//   {{if since != ""}} AND c.completed_at >= @since {{end}}
	// GROUP BY r.type
	AverageResponseByType(patientID int64, since string) ([]gen.M, error)
}

// AlertQuerier 告警统计
type AlertQuerier interface {
	// CountOpenByCaregiver 照护者未确认的告警数
	//
	// SELECT COUNT(*) FROM @@table
	// WHERE caregiver_id = @caregiverID AND status = 'open' AND deleted_at IS NULL
	CountOpenByCaregiver(caregiverID int64) (int64, error)
}

func generate() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:          "./internal/repository/query",
		ModelPkgPath:     "CareCompanion/internal/model",
		Mode:             gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:    true,
		FieldWithTypeTag: true,
	})
	g.UseDB(database.DB())

	g.ApplyBasic(
		&model.User{},
		&model.Reminder{},
		&model.ReminderLog{},
		&model.UsagePattern{},
		&model.ActivityFeedEntry{},
		&model.Medication{},
		&model.NotificationTask{},
		&model.ContactAttempt{},
	)
	g.ApplyInterface(func(OccurrenceQuerier) {}, &model.ReminderOccurrence{})
	g.ApplyInterface(func(CompletionQuerier) {}, &model.ReminderCompletion{})
	g.ApplyInterface(func(AlertQuerier) {}, &model.CaregiverAlert{})

	g.Execute()
	return nil
}

func main() {
	logger.Init()
	defer logger.Sync()

	if err := generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}
