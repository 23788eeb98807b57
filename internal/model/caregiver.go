package model

import "time"

// CaregiverAlertStatus 告警状态
type CaregiverAlertStatus string

const (
	CaregiverAlertStatusOpen         CaregiverAlertStatus = "open"
	CaregiverAlertStatusAcknowledged CaregiverAlertStatus = "acknowledged"
)

// CaregiverAlert 面向照护者的告警
type CaregiverAlert struct {
	BaseModel
	PatientID       int64                `gorm:"not null;index:idx_alerts_patient_status" json:"patient_id"`
	CaregiverID     *int64               `gorm:"index" json:"caregiver_id,omitempty"`
	ReminderID      int64                `gorm:"not null" json:"reminder_id"`
	OccurrenceID    int64                `gorm:"not null;uniqueIndex" json:"occurrence_id"`
	AlertType       string               `gorm:"type:varchar(32);not null;default:'missed_dose'" json:"alert_type"`
	PatientName     string               `gorm:"type:varchar(64);not null;default:''" json:"patient_name"`
	Label           string               `gorm:"type:varchar(512);not null" json:"label"`
	DoseTimeDisplay string               `gorm:"type:varchar(16);not null" json:"dose_time_display"`
	Status          CaregiverAlertStatus `gorm:"type:varchar(16);not null;default:'open';index:idx_alerts_patient_status" json:"status"`
	AcknowledgedAt  *time.Time           `gorm:"type:timestamptz" json:"acknowledged_at,omitempty"`
}

// TableName 指定表名
func (CaregiverAlert) TableName() string {
	return "caregiver_alerts"
}

// ActivityFeedEntry 患者与照护者共享的动态
type ActivityFeedEntry struct {
	BaseModel
	PatientID   int64     `gorm:"not null;index:idx_activity_patient_time" json:"patient_id"`
	Description string    `gorm:"type:varchar(512);not null" json:"description"`
	OccurredAt  time.Time `gorm:"type:timestamptz;not null;index:idx_activity_patient_time" json:"occurred_at"`
	Icon        string    `gorm:"type:varchar(32);not null;default:''" json:"icon"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
}

// TableName 指定表名
func (ActivityFeedEntry) TableName() string {
	return "activity_feed"
}

// Medication 用药记录
type Medication struct {
	BaseModel
	PatientID int64      `gorm:"not null;index:idx_medications_patient" json:"patient_id"`
	Name      string     `gorm:"type:varchar(128);not null" json:"name"`
	Dosage    string     `gorm:"type:varchar(64);not null;default:''" json:"dosage"`
	DoseTime  string     `gorm:"type:varchar(16);not null;default:''" json:"dose_time"`
	Taken     bool       `gorm:"not null;default:false;index:idx_medications_patient" json:"taken"`
	TakenAt   *time.Time `gorm:"type:timestamptz" json:"taken_at,omitempty"`
}

// TableName 指定表名
func (Medication) TableName() string {
	return "medications"
}
