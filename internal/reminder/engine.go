package reminder

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrNothingPresented  = errors.New("no reminder is being presented")
	ErrSnoozeUnavailable = errors.New("snooze is only available before the final warning")
)

// 已处理实例在会话内保留的时长，超过后从 dismissed 中清理
const dismissedRetention = 24 * time.Hour

// TickResult 一次 Tick 的结果，Missed 需要交给 Dispatcher.MissedDose
type TickResult struct {
	Presentation *Presentation
	Missed       []Occurrence
}

// Engine 患者端提醒状态机。
// 所有状态都由时间戳推导，不依赖 tick 计数，时钟跳变后下一次 Tick 即可自我修正。
// Engine 本身不加锁，由 Session 串行调用。
type Engine struct {
	timing Timing

	occurrences  []Occurrence
	dismissed    map[int64]time.Time
	snoozedUntil map[int64]time.Time
	startedAt    map[int64]time.Time

	phase          Phase
	currentID      int64
	currentDue     time.Time
	finalStartedAt time.Time
	caregiverView  bool
	current        *Presentation
	lastTick       time.Time
}

func NewEngine(timing Timing) *Engine {
	return &Engine{
		timing:       timing,
		dismissed:    make(map[int64]time.Time),
		snoozedUntil: make(map[int64]time.Time),
		startedAt:    make(map[int64]time.Time),
		phase:        PhaseInitial,
	}
}

func (e *Engine) Timing() Timing {
	return e.timing
}

// Refresh 替换当前快照
func (e *Engine) Refresh(occurrences []Occurrence) {
	snapshot := make([]Occurrence, len(occurrences))
	copy(snapshot, occurrences)
	sort.SliceStable(snapshot, func(i, j int) bool {
		if !snapshot[i].NextDueTime.Equal(snapshot[j].NextDueTime) {
			return snapshot[i].NextDueTime.Before(snapshot[j].NextDueTime)
		}
		return snapshot[i].ID < snapshot[j].ID
	})
	e.occurrences = snapshot

	// 快照里已经没有的实例（别处处理或被停用）不再需要本地状态
	present := make(map[int64]struct{}, len(snapshot))
	for _, o := range snapshot {
		present[o.ID] = struct{}{}
	}
	for id := range e.snoozedUntil {
		if _, ok := present[id]; !ok && !e.isDismissed(id) {
			delete(e.snoozedUntil, id)
		}
	}
	for id := range e.startedAt {
		if _, ok := present[id]; !ok && !e.isDismissed(id) {
			delete(e.startedAt, id)
		}
	}

	if e.lastTick.IsZero() {
		return
	}
	for id, at := range e.dismissed {
		if e.lastTick.Sub(at) > dismissedRetention {
			delete(e.dismissed, id)
			delete(e.startedAt, id)
		}
	}
}

func (e *Engine) Tick(now time.Time) TickResult {
	e.lastTick = now
	if e.caregiverView {
		e.current = nil
		return TickResult{}
	}

	var res TickResult

	// 越过宽限期仍未处理的实例，等同倒计时耗尽
	for _, o := range e.occurrences {
		if !e.eligible(o, now) {
			continue
		}
		if e.timing.Overrun(e.dueOf(o), now) {
			e.resolve(o.ID, now)
			res.Missed = append(res.Missed, o)
		}
	}
	if e.currentID != 0 && e.isDismissed(e.currentID) {
		e.dismiss()
		return res
	}

	cand, ok := e.selectCandidate(now)
	if !ok {
		e.reset()
		return res
	}

	due := e.dueOf(cand)
	switch {
	case cand.ID != e.currentID:
		e.currentID = cand.ID
		if _, seen := e.startedAt[cand.ID]; !seen {
			e.startedAt[cand.ID] = now
		}
		e.enterPhaseFor(cand.ID, due, now)
	case due.After(e.currentDue):
		// 照护者重新发送后到期时间后移，按新的到期时间重新判定阶段
		e.enterPhaseFor(cand.ID, due, now)
	case e.phase != PhaseFinalWarning && !now.Before(due):
		e.enterFinalWarning(now)
	}
	e.currentDue = due

	pres := &Presentation{
		Occurrence:         cand,
		Phase:              e.phase,
		CountdownRemaining: ceilSeconds(e.timing.FinalWarning),
		MinutesUntilDue:    minutesUntil(due, now),
		StartedAt:          e.startedAt[cand.ID],
	}
	pres.Occurrence.NextDueTime = due

	if e.phase == PhaseFinalWarning {
		remaining := e.countdown(due, now)
		if remaining <= 0 {
			e.resolve(cand.ID, now)
			res.Missed = append(res.Missed, cand)
			e.dismiss()
			return res
		}
		pres.CountdownRemaining = ceilSeconds(remaining)
	}

	e.current = pres
	res.Presentation = e.Current()
	return res
}

// Current 上一次 Tick 计算出的展示内容，没有则返回 nil
func (e *Engine) Current() *Presentation {
	if e.current == nil {
		return nil
	}
	p := *e.current
	return &p
}

func (e *Engine) Phase() Phase {
	return e.phase
}

// Acknowledge 在本地结束当前展示的实例，返回被确认的展示内容
func (e *Engine) Acknowledge(now time.Time) (Presentation, bool) {
	if e.current == nil {
		return Presentation{}, false
	}
	pres := *e.current
	if started, ok := e.startedAt[pres.Occurrence.ID]; ok {
		pres.StartedAt = started
	}
	e.resolve(pres.Occurrence.ID, now)
	e.dismiss()
	return pres, true
}

// Snooze 隐藏当前实例直到 now+d，最终警告阶段不可延后
func (e *Engine) Snooze(now time.Time, d time.Duration) (Occurrence, time.Time, error) {
	if e.current == nil {
		return Occurrence{}, time.Time{}, ErrNothingPresented
	}
	if e.current.Phase != PhaseInitial {
		return Occurrence{}, time.Time{}, ErrSnoozeUnavailable
	}
	occ := e.current.Occurrence
	until := now.Add(d)
	e.snoozedUntil[occ.ID] = until
	for i := range e.occurrences {
		if e.occurrences[i].ID == occ.ID {
			e.occurrences[i].NextDueTime = until
		}
	}
	e.reset()
	return occ, until, nil
}

// SetCaregiverView 照护者视图下不产生任何展示，也不修改实例状态
func (e *Engine) SetCaregiverView(on bool) {
	e.caregiverView = on
	if on {
		e.current = nil
	}
}

func (e *Engine) CaregiverView() bool {
	return e.caregiverView
}

// SnoozedUntil 供展示与测试使用
func (e *Engine) SnoozedUntil(id int64) (time.Time, bool) {
	t, ok := e.snoozedUntil[id]
	return t, ok
}

func (e *Engine) eligible(o Occurrence, now time.Time) bool {
	if !o.Status.Actionable() || e.isDismissed(o.ID) {
		return false
	}
	if until, ok := e.snoozedUntil[o.ID]; ok && now.Before(until) {
		return false
	}
	return true
}

func (e *Engine) selectCandidate(now time.Time) (Occurrence, bool) {
	var (
		best    Occurrence
		bestDue time.Time
		found   bool
	)
	for _, o := range e.occurrences {
		if !e.eligible(o, now) {
			continue
		}
		due := e.dueOf(o)
		if !e.timing.InWindow(due, now) {
			continue
		}
		if !found || due.Before(bestDue) || (due.Equal(bestDue) && o.ID < best.ID) {
			best, bestDue, found = o, due, true
		}
	}
	return best, found
}

// dueOf 延后写库失败时以本地 snoozedUntil 为准
func (e *Engine) dueOf(o Occurrence) time.Time {
	if until, ok := e.snoozedUntil[o.ID]; ok && until.After(o.NextDueTime) {
		return until
	}
	return o.NextDueTime
}

func (e *Engine) countdown(due, now time.Time) time.Duration {
	elapsed := now.Sub(e.finalStartedAt)
	if elapsed < 0 {
		// 时钟回拨
		e.finalStartedAt = now
		elapsed = 0
	}
	remaining := e.timing.FinalWarning - elapsed
	if left := e.timing.GraceEnd(due).Sub(now); left < remaining {
		remaining = left
	}
	return remaining
}

// enterPhaseFor 延后结束回来的实例直接进入最终警告
func (e *Engine) enterPhaseFor(id int64, due, now time.Time) {
	_, snoozed := e.snoozedUntil[id]
	if snoozed || !now.Before(due) {
		e.enterFinalWarning(now)
		return
	}
	e.phase = PhaseInitial
	e.finalStartedAt = time.Time{}
}

func (e *Engine) enterFinalWarning(now time.Time) {
	e.phase = PhaseFinalWarning
	e.finalStartedAt = now
}

func (e *Engine) isDismissed(id int64) bool {
	_, ok := e.dismissed[id]
	return ok
}

func (e *Engine) resolve(id int64, now time.Time) {
	e.dismissed[id] = now
	delete(e.snoozedUntil, id)
	delete(e.startedAt, id)
}

func (e *Engine) dismiss() {
	e.phase = PhaseDismissed
	e.currentID = 0
	e.currentDue = time.Time{}
	e.finalStartedAt = time.Time{}
	e.current = nil
}

func (e *Engine) reset() {
	e.phase = PhaseInitial
	e.currentID = 0
	e.currentDue = time.Time{}
	e.finalStartedAt = time.Time{}
	e.current = nil
}
