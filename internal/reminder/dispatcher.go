package reminder

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"CareCompanion/pkg/metrics"
)

const (
	methodAcknowledged = "acknowledged"
	triggeredByPatient = "patient"

	activityAcknowledged = "reminder_acknowledged"
	activitySnoozed      = "reminder_snoozed"

	iconMedication = "pill"
	iconWarning    = "alert"
	warningMarker  = "⚠️"
)

// Dispatcher 把确认、延后、漏服转换为存储写入。
// 状态写入是 check-and-set，其余写入彼此独立、尽力而为，失败只记录日志。
type Dispatcher struct {
	store       Store
	notifier    AlertNotifier
	patientName string
	location    *time.Location
	logger      *zap.Logger
}

type DispatcherOption func(*Dispatcher)

func WithNotifier(n AlertNotifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithPatientName(name string) DispatcherOption {
	return func(d *Dispatcher) { d.patientName = name }
}

// WithLocation 患者所在时区，用于服药时间展示与使用习惯统计
func WithLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDispatcher(store Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		location: time.UTC,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type write struct {
	name string
	fn   func(context.Context) error
}

// Acknowledge 患者确认。applied=false 表示实例已被其他路径处理，本次为空操作
func (d *Dispatcher) Acknowledge(ctx context.Context, occ Occurrence, startedAt, at time.Time) (bool, error) {
	log := d.logger.With(zap.Int64("occurrence_id", occ.ID), zap.Int64("reminder_id", occ.ReminderID))

	applied, err := d.store.UpdateOccurrenceStatus(ctx, occ.ID, StatusCompleted, &at)
	if err != nil {
		log.Error("Failed to mark occurrence completed", zap.Error(err))
		metrics.RecordReminderWriteFailure(ctx, "occurrence_status")
		return false, fmt.Errorf("acknowledge occurrence %d: %w", occ.ID, err)
	}
	if !applied {
		log.Debug("Occurrence already resolved, skip acknowledge")
		return false, nil
	}

	responseSeconds := 0
	if !startedAt.IsZero() && at.After(startedAt) {
		responseSeconds = int(at.Sub(startedAt).Seconds())
	}

	writes := []write{
		{"completion", func(ctx context.Context) error {
			return d.store.AppendCompletion(ctx, Completion{
				ReminderID:          occ.ReminderID,
				OccurrenceID:        occ.ID,
				Method:              methodAcknowledged,
				ResponseTimeSeconds: responseSeconds,
				TriggeredBy:         triggeredByPatient,
				CompletedAt:         at,
			})
		}},
		{"log", func(ctx context.Context) error {
			return d.store.AppendLog(ctx, occ, EventCompleted, map[string]any{
				"response_time_seconds": responseSeconds,
			})
		}},
		{"usage_pattern", func(ctx context.Context) error {
			return d.store.AppendUsagePattern(ctx, d.usagePattern(activityAcknowledged, occ, at, nil))
		}},
	}
	if occ.Reminder.Type == TypeMedication {
		writes = append(writes, write{"medication", func(ctx context.Context) error {
			return d.linkMedication(ctx, occ, at)
		}})
	}
	d.run(ctx, log, writes)

	metrics.RecordReminderResolved(ctx, methodAcknowledged, string(occ.Reminder.Type))
	metrics.RecordReminderResponse(ctx, string(occ.Reminder.Type), float64(responseSeconds))
	log.Info("Reminder acknowledged", zap.Int("response_time_seconds", responseSeconds))
	return true, nil
}

// Snooze 把到期时间推迟到 until，状态保持不变
func (d *Dispatcher) Snooze(ctx context.Context, occ Occurrence, until, at time.Time) (bool, error) {
	log := d.logger.With(zap.Int64("occurrence_id", occ.ID), zap.Int64("reminder_id", occ.ReminderID))
	minutes := snoozeMinutes(until.Sub(at))

	applied, err := d.store.UpdateOccurrenceNextDue(ctx, occ.ID, until)
	if err != nil {
		log.Error("Failed to move occurrence due time", zap.Error(err))
		metrics.RecordReminderWriteFailure(ctx, "occurrence_next_due")
		return false, fmt.Errorf("snooze occurrence %d: %w", occ.ID, err)
	}
	if !applied {
		log.Debug("Occurrence already resolved, skip snooze")
		return false, nil
	}

	d.run(ctx, log, []write{
		{"log", func(ctx context.Context) error {
			return d.store.AppendLog(ctx, occ, EventSnoozed, map[string]any{"snoozeMinutes": minutes})
		}},
		{"usage_pattern", func(ctx context.Context) error {
			return d.store.AppendUsagePattern(ctx, d.usagePattern(activitySnoozed, occ, at, map[string]any{
				"snooze_minutes": minutes,
			}))
		}},
	})

	metrics.RecordReminderSnoozed(ctx, int(math.Ceil(until.Sub(at).Minutes())))
	log.Info("Reminder snoozed", zap.Any("minutes", minutes), zap.Time("until", until))
	return true, nil
}

// snoozeMinutes 整分钟记为 int，否则保留小数
func snoozeMinutes(d time.Duration) any {
	if d%time.Minute == 0 {
		return int(d / time.Minute)
	}
	return d.Minutes()
}

// MissedDose 倒计时耗尽或越过宽限期，不由用户操作触发
func (d *Dispatcher) MissedDose(ctx context.Context, occ Occurrence, reason string, at time.Time) (bool, error) {
	log := d.logger.With(zap.Int64("occurrence_id", occ.ID), zap.Int64("reminder_id", occ.ReminderID))

	applied, err := d.store.UpdateOccurrenceStatus(ctx, occ.ID, StatusCompleted, &at)
	if err != nil {
		log.Error("Failed to mark missed occurrence completed", zap.Error(err))
		metrics.RecordReminderWriteFailure(ctx, "occurrence_status")
		return false, fmt.Errorf("missed dose occurrence %d: %w", occ.ID, err)
	}
	if !applied {
		log.Debug("Occurrence already resolved, skip missed dose")
		return false, nil
	}

	label := occ.Reminder.Label()
	doseTime := FormatDoseTime(occ.NextDueTime, d.location)

	d.run(ctx, log, []write{
		{"log", func(ctx context.Context) error {
			return d.store.AppendLog(ctx, occ, EventMissed, map[string]any{"reason": reason})
		}},
		{"caregiver_alert", func(ctx context.Context) error {
			alert, err := d.store.CreateCaregiverAlert(ctx, CaregiverAlert{
				ReminderID:      occ.ReminderID,
				OccurrenceID:    occ.ID,
				PatientName:     d.patientName,
				Label:           label,
				DoseTimeDisplay: doseTime,
				CreatedAt:       at,
			})
			if err != nil {
				return err
			}
			if d.notifier == nil {
				return nil
			}
			return d.notifier.NotifyMissedDose(ctx, alert)
		}},
		{"activity_feed", func(ctx context.Context) error {
			return d.store.AppendActivityFeedEntry(ctx, ActivityEntry{
				Description: fmt.Sprintf("%s %s missed %s (due %s)", warningMarker, d.displayName(), label, doseTime),
				Time:        at,
				Icon:        iconWarning,
				Completed:   false,
			})
		}},
	})

	metrics.RecordReminderResolved(ctx, "missed", string(occ.Reminder.Type))
	log.Warn("Reminder missed", zap.String("reason", reason), zap.String("due", doseTime))
	return true, nil
}

// linkMedication 尽力关联用药记录，未命中不是错误
func (d *Dispatcher) linkMedication(ctx context.Context, occ Occurrence, at time.Time) error {
	fragment := MedicationFragment(occ.Reminder)
	if fragment == "" {
		return nil
	}

	med, err := d.store.FindOpenMedicationByNameFragment(ctx, fragment)
	if err != nil {
		return err
	}
	if med == nil {
		d.logger.Debug("No open medication matched reminder", zap.String("fragment", fragment))
		return nil
	}

	if err := d.store.MarkMedicationTaken(ctx, med.ID, at); err != nil {
		return err
	}
	return d.store.AppendActivityFeedEntry(ctx, ActivityEntry{
		Description: fmt.Sprintf("%s took %s", d.displayName(), med.Name),
		Time:        at,
		Icon:        iconMedication,
		Completed:   true,
	})
}

// run 并发执行互不依赖的写入，单个失败不影响其他写入
func (d *Dispatcher) run(ctx context.Context, log *zap.Logger, writes []write) {
	var wg sync.WaitGroup
	for _, w := range writes {
		wg.Add(1)
		go func(w write) {
			defer wg.Done()
			if err := w.fn(ctx); err != nil {
				log.Warn("Reminder side-effect write failed",
					zap.String("write", w.name),
					zap.Error(err),
				)
				metrics.RecordReminderWriteFailure(ctx, w.name)
			}
		}(w)
	}
	wg.Wait()
}

func (d *Dispatcher) usagePattern(activity string, occ Occurrence, at time.Time, extra map[string]any) UsagePattern {
	local := at.In(d.location)
	meta := map[string]any{
		"reminder_id":   occ.ReminderID,
		"reminder_type": string(occ.Reminder.Type),
	}
	for k, v := range extra {
		meta[k] = v
	}
	return UsagePattern{
		ActivityType: activity,
		HourOfDay:    local.Hour(),
		DayOfWeek:    int(local.Weekday()),
		Metadata:     meta,
	}
}

func (d *Dispatcher) displayName() string {
	if d.patientName == "" {
		return "Patient"
	}
	return d.patientName
}

// FormatDoseTime 12 小时制展示，如 "9:05 AM"
func FormatDoseTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("3:04 PM")
}
