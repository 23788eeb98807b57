package reminder

import (
	"math"
	"time"
)

// Timing 提醒时间窗口参数
type Timing struct {
	PreDoseWindow time.Duration
	GracePeriod   time.Duration
	DefaultSnooze time.Duration
	FinalWarning  time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		PreDoseWindow: 10 * time.Minute,
		GracePeriod:   time.Minute,
		DefaultSnooze: 9 * time.Minute,
		FinalWarning:  60 * time.Second,
	}
}

func (t Timing) ShowTime(due time.Time) time.Time {
	return due.Add(-t.PreDoseWindow)
}

func (t Timing) GraceEnd(due time.Time) time.Time {
	return due.Add(t.GracePeriod)
}

// InWindow 两端闭区间：showTime <= now <= graceEnd
func (t Timing) InWindow(due, now time.Time) bool {
	return !now.Before(t.ShowTime(due)) && !now.After(t.GraceEnd(due))
}

// Overrun 已越过宽限期
func (t Timing) Overrun(due, now time.Time) bool {
	return now.After(t.GraceEnd(due))
}

// SnoozeDuration minutes<=0 时使用默认延后时长
func (t Timing) SnoozeDuration(minutes int) time.Duration {
	if minutes <= 0 {
		return t.DefaultSnooze
	}
	return time.Duration(minutes) * time.Minute
}

func minutesUntil(due, now time.Time) int {
	d := due.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
