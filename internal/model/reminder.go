package model

import "time"

// ReminderType 提醒类型
type ReminderType string

const (
	ReminderTypeMedication ReminderType = "medication"
	ReminderTypeMeal       ReminderType = "meal"
	ReminderTypeExercise   ReminderType = "exercise"
	ReminderTypeCheckIn    ReminderType = "check_in"
	ReminderTypeCustom     ReminderType = "custom"
)

// Reminder 提醒定义，由照护者或系统创建
type Reminder struct {
	BaseModel
	PatientID  int64        `gorm:"not null;index:idx_reminders_patient" json:"patient_id"`
	CreatedBy  int64        `gorm:"not null" json:"created_by"`
	Type       ReminderType `gorm:"type:varchar(16);not null" json:"type"`
	Title      string       `gorm:"type:varchar(128);not null" json:"title"`
	Message    string       `gorm:"type:varchar(512);not null;default:''" json:"message"`
	PhotoURL   string       `gorm:"type:varchar(512);not null;default:''" json:"photo_url"`
	Priority   int          `gorm:"type:smallint;not null;default:0" json:"priority"`
	Persistent bool         `gorm:"not null;default:false" json:"persistent"`
	Enabled    bool         `gorm:"not null;default:true;index:idx_reminders_patient" json:"enabled"`

	// RRULE 重复规则，空表示只能由照护者手动发送
	Schedule string    `gorm:"type:varchar(256);not null;default:''" json:"schedule"`
	DTStart  time.Time `gorm:"type:timestamptz;not null" json:"dtstart"`
}

// TableName 指定表名
func (Reminder) TableName() string {
	return "reminders"
}

// OccurrenceStatus 提醒实例状态
type OccurrenceStatus string

const (
	OccurrenceStatusActive    OccurrenceStatus = "active"
	OccurrenceStatusSent      OccurrenceStatus = "sent"
	OccurrenceStatusCompleted OccurrenceStatus = "completed"
)

// ReminderOccurrence 提醒的一次实例
type ReminderOccurrence struct {
	BaseModel
	ReminderID int64 `gorm:"not null;uniqueIndex:uk_occurrence_slot" json:"reminder_id"`
	PatientID  int64 `gorm:"not null;index:idx_occurrences_patient_status" json:"patient_id"`
	// 生成时的原始到期时间，用于去重，延后不修改
	ScheduledFor time.Time        `gorm:"type:timestamptz;not null;uniqueIndex:uk_occurrence_slot" json:"scheduled_for"`
	NextDueTime  time.Time        `gorm:"type:timestamptz;not null;index" json:"next_due_time"`
	Status       OccurrenceStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_occurrences_patient_status" json:"status"`
	LastSentAt   *time.Time       `gorm:"type:timestamptz" json:"last_sent_at,omitempty"`
	SendCount    int              `gorm:"not null;default:0" json:"send_count"`
	CompletedAt  *time.Time       `gorm:"type:timestamptz" json:"completed_at,omitempty"`

	Reminder *Reminder `gorm:"foreignKey:ReminderID" json:"reminder,omitempty"`
}

// TableName 指定表名
func (ReminderOccurrence) TableName() string {
	return "reminder_occurrences"
}

// ReminderLog 提醒审计日志
type ReminderLog struct {
	BaseModel
	ReminderID   int64  `gorm:"not null;index" json:"reminder_id"`
	OccurrenceID int64  `gorm:"not null;index" json:"occurrence_id"`
	PatientID    int64  `gorm:"not null;index" json:"patient_id"`
	EventType    string `gorm:"type:varchar(16);not null" json:"event_type"`
	Metadata     JSONB  `gorm:"type:jsonb" json:"metadata"`
}

// TableName 指定表名
func (ReminderLog) TableName() string {
	return "reminder_logs"
}

// ReminderCompletion 完成记录
type ReminderCompletion struct {
	BaseModel
	ReminderID          int64     `gorm:"not null;index" json:"reminder_id"`
	OccurrenceID        int64     `gorm:"not null;index" json:"occurrence_id"`
	PatientID           int64     `gorm:"not null;index" json:"patient_id"`
	Method              string    `gorm:"type:varchar(16);not null" json:"method"`
	ResponseTimeSeconds int       `gorm:"not null;default:0" json:"response_time_seconds"`
	TriggeredBy         string    `gorm:"type:varchar(16);not null" json:"triggered_by"`
	CompletedAt         time.Time `gorm:"type:timestamptz;not null" json:"completed_at"`
}

// TableName 指定表名
func (ReminderCompletion) TableName() string {
	return "reminder_completions"
}

// UsagePattern 患者使用习惯，用于后续分析
type UsagePattern struct {
	BaseModel
	PatientID    int64  `gorm:"not null;index" json:"patient_id"`
	ActivityType string `gorm:"type:varchar(32);not null" json:"activity_type"`
	HourOfDay    int    `gorm:"type:smallint;not null" json:"hour_of_day"`
	DayOfWeek    int    `gorm:"type:smallint;not null" json:"day_of_week"`
	Metadata     JSONB  `gorm:"type:jsonb" json:"metadata"`
}

// TableName 指定表名
func (UsagePattern) TableName() string {
	return "usage_patterns"
}
