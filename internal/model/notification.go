package model

import (
	"time"

	"database/sql/driver"
	"encoding/json"
	"errors"
)

// NotificationCategory 通知类别枚举
type NotificationCategory string

const (
	NotificationCategoryMissedDose NotificationCategory = "missed_dose" // 漏服告警
)

// NotificationChannel 通知渠道枚举
type NotificationChannel string

const (
	NotificationChannelSMS NotificationChannel = "sms"
)

// NotificationTaskStatus 通知任务状态枚举
type NotificationTaskStatus string

const (
	NotificationTaskStatusPending    NotificationTaskStatus = "pending"    // 待处理
	NotificationTaskStatusProcessing NotificationTaskStatus = "processing" // 处理中
	NotificationTaskStatusSuccess    NotificationTaskStatus = "success"    // 成功
	NotificationTaskStatusFailed     NotificationTaskStatus = "failed"     // 失败
)

// NotificationTask 通知任务模型，一条告警对应一个任务
type NotificationTask struct {
	BaseModel
	TaskCode    int64                  `gorm:"uniqueIndex;not null" json:"task_code"`
	AlertID     int64                  `gorm:"not null;uniqueIndex:uk_task_alert_channel" json:"alert_id"`
	PatientID   int64                  `gorm:"not null;index" json:"patient_id"`
	CaregiverID int64                  `gorm:"not null;index" json:"caregiver_id"`
	Category    NotificationCategory   `gorm:"type:varchar(32);not null" json:"category"`
	Channel     NotificationChannel    `gorm:"type:varchar(16);not null;uniqueIndex:uk_task_alert_channel" json:"channel"`
	Payload     JSONB                  `gorm:"type:jsonb;not null" json:"payload"`
	Status      NotificationTaskStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_notification_tasks_status" json:"status"`
	RetryCount  int                    `gorm:"type:smallint;not null;default:0" json:"retry_count"`
	ScheduledAt time.Time              `gorm:"type:timestamptz;not null;index:idx_notification_tasks_status" json:"scheduled_at"`
	ProcessedAt *time.Time             `gorm:"type:timestamptz" json:"processed_at,omitempty"`
}

// TableName 指定表名
func (NotificationTask) TableName() string {
	return "notification_tasks"
}

// JSONB 自定义 JSONB 类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value")
	}
	return json.Unmarshal(bytes, j)
}
