package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 提醒相关指标
	ReminderResolvedTotal     metric.Int64Counter
	ReminderResponseSeconds   metric.Float64Histogram
	ReminderSnoozedTotal      metric.Int64Counter
	ReminderWriteFailureTotal metric.Int64Counter
	ReminderActiveSessions    metric.Int64UpDownCounter
	OccurrenceGeneratedTotal  metric.Int64Counter

	// 照护者短信指标
	SMSSentTotal    metric.Int64Counter
	SMSSendDuration metric.Float64Histogram
}

var (
	// 全局指标实例，未初始化时所有记录函数为空操作
	metrics *OTelMetrics
	// meter 用于创建指标
	meter = otel.Meter("carecompanion")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	m := &OTelMetrics{}

	m.ReminderResolvedTotal, err = meter.Int64Counter(
		"reminder_resolved_total",
		metric.WithDescription("Total number of reminder occurrences resolved, by outcome"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return err
	}

	m.ReminderResponseSeconds, err = meter.Float64Histogram(
		"reminder_response_seconds",
		metric.WithDescription("Time from first presentation to patient acknowledgement"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(5, 15, 30, 60, 120, 300, 600, 900),
	)
	if err != nil {
		return err
	}

	m.ReminderSnoozedTotal, err = meter.Int64Counter(
		"reminder_snoozed_total",
		metric.WithDescription("Total number of snoozes"),
		metric.WithUnit("{snooze}"),
	)
	if err != nil {
		return err
	}

	m.ReminderWriteFailureTotal, err = meter.Int64Counter(
		"reminder_write_failure_total",
		metric.WithDescription("Best-effort reminder side-effect writes that failed"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return err
	}

	m.ReminderActiveSessions, err = meter.Int64UpDownCounter(
		"reminder_active_sessions",
		metric.WithDescription("Number of mounted patient reminder sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	m.OccurrenceGeneratedTotal, err = meter.Int64Counter(
		"reminder_occurrence_generated_total",
		metric.WithDescription("Occurrences created by the recurrence generator"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return err
	}

	m.SMSSentTotal, err = meter.Int64Counter(
		"sms_sent_total",
		metric.WithDescription("Total number of caregiver SMS sent"),
		metric.WithUnit("{sms}"),
	)
	if err != nil {
		return err
	}

	m.SMSSendDuration, err = meter.Float64Histogram(
		"sms_send_duration_seconds",
		metric.WithDescription("Time spent sending SMS in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics = m
	return nil
}

// GetMetrics 获取全局指标实例
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordReminderResolved outcome: acknowledged, missed
func RecordReminderResolved(ctx context.Context, outcome, reminderType string) {
	if metrics == nil {
		return
	}
	metrics.ReminderResolvedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("reminder_type", reminderType),
	))
}

func RecordReminderResponse(ctx context.Context, reminderType string, seconds float64) {
	if metrics == nil {
		return
	}
	metrics.ReminderResponseSeconds.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("reminder_type", reminderType),
	))
}

func RecordReminderSnoozed(ctx context.Context, minutes int) {
	if metrics == nil {
		return
	}
	metrics.ReminderSnoozedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("minutes", minutes),
	))
}

func RecordReminderWriteFailure(ctx context.Context, write string) {
	if metrics == nil {
		return
	}
	metrics.ReminderWriteFailureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("write", write),
	))
}

func AddActiveSessions(ctx context.Context, delta int64) {
	if metrics == nil {
		return
	}
	metrics.ReminderActiveSessions.Add(ctx, delta)
}

func RecordOccurrencesGenerated(ctx context.Context, count int) {
	if metrics == nil || count <= 0 {
		return
	}
	metrics.OccurrenceGeneratedTotal.Add(ctx, int64(count))
}

// RecordSMSSent status: success, failed
func RecordSMSSent(ctx context.Context, template, status string, duration float64) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("status", status),
	)
	metrics.SMSSentTotal.Add(ctx, 1, attrs)
	metrics.SMSSendDuration.Record(ctx, duration, attrs)
}
