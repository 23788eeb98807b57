package reminder

import (
	"context"
	"time"
)

// Store 患者维度的提醒存储。
// UpdateOccurrenceStatus 与 UpdateOccurrenceNextDue 必须是 check-and-set：
// 仅当实例仍处于 active/sent 时写入，applied=false 表示已被其他路径处理。
type Store interface {
	ListOccurrences(ctx context.Context, statuses []Status) ([]Occurrence, error)
	UpdateOccurrenceStatus(ctx context.Context, id int64, status Status, completedAt *time.Time) (applied bool, err error)
	UpdateOccurrenceNextDue(ctx context.Context, id int64, next time.Time) (applied bool, err error)
	AppendLog(ctx context.Context, occ Occurrence, eventType EventType, metadata map[string]any) error
	AppendCompletion(ctx context.Context, c Completion) error
	AppendUsagePattern(ctx context.Context, p UsagePattern) error
	CreateCaregiverAlert(ctx context.Context, a CaregiverAlert) (CaregiverAlert, error)
	AppendActivityFeedEntry(ctx context.Context, e ActivityEntry) error
	FindOpenMedicationByNameFragment(ctx context.Context, fragment string) (*Medication, error)
	MarkMedicationTaken(ctx context.Context, id int64, at time.Time) error
}

// AlertNotifier 漏服告警的外部通知，如短信
type AlertNotifier interface {
	NotifyMissedDose(ctx context.Context, alert CaregiverAlert) error
}
