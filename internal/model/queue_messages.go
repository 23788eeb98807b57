package model

// MissedDoseAlertMessage 漏服告警消息，由 worker 消费并短信通知照护者
type MissedDoseAlertMessage struct {
	MessageID       string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	AlertID         int64  `json:"alert_id"`
	PatientID       int64  `json:"patient_id"`
	ReminderID      int64  `json:"reminder_id"`
	OccurrenceID    int64  `json:"occurrence_id"`
	PatientName     string `json:"patient_name"`
	Label           string `json:"label"`
	DoseTimeDisplay string `json:"dose_time_display"`
	OccurredAt      string `json:"occurred_at"`
}

// OverdueSweepMessage 延迟消息，到期后触发一次指定患者的超时扫描
type OverdueSweepMessage struct {
	MessageID    string `json:"message_id"`
	PatientID    int64  `json:"patient_id"`
	OccurrenceID int64  `json:"occurrence_id"`
	ScheduledAt  string `json:"scheduled_at"`
	DelaySeconds int    `json:"delay_seconds"`
}
