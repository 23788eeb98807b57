package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrSessionStopped = errors.New("reminder session stopped")

// SessionConfig 会话运行参数
type SessionConfig struct {
	Timing          Timing
	TickInterval    time.Duration
	RefreshInterval time.Duration
	WriteTimeout    time.Duration
	Clock           func() time.Time
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Timing == (Timing{}) {
		c.Timing = DefaultTiming()
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Session 一个患者端展示实例：持有 Engine，按 1Hz 推进并定期从存储刷新。
// 写入都是 fire-and-forget，本地阶段不等待写入完成。
type Session struct {
	cfg        SessionConfig
	store      Store
	dispatcher *Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	engine   *Engine
	lastSeen time.Time

	// stopped 之后不再派发写入，pending.Add 只在 runMu 下进行
	runMu   sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	loops   sync.WaitGroup
	pending sync.WaitGroup
}

func NewSession(store Store, dispatcher *Dispatcher, cfg SessionConfig, logger *zap.Logger) *Session {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		engine:     NewEngine(cfg.Timing),
		lastSeen:   cfg.Clock(),
	}
}

// Start 先同步加载一次快照，然后启动 tick 与刷新循环
func (s *Session) Start(ctx context.Context) {
	s.runMu.Lock()
	if s.cancel != nil || s.stopped {
		s.runMu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loops.Add(2)
	s.runMu.Unlock()

	if err := s.Refresh(runCtx); err != nil {
		s.logger.Warn("Initial reminder refresh failed", zap.Error(err))
	}
	s.Step(runCtx, s.cfg.Clock())

	go s.tickLoop(runCtx)
	go s.refreshLoop(runCtx)
}

// Stop 取消所有定时器并等待循环与未完成的写入退出
func (s *Session) Stop() {
	s.runMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.stopped = true
	s.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.loops.Wait()
	s.pending.Wait()
}

func (s *Session) tickLoop(ctx context.Context) {
	defer s.loops.Done()
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(ctx, s.cfg.Clock())
		}
	}
}

func (s *Session) refreshLoop(ctx context.Context) {
	defer s.loops.Done()
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Reminder refresh failed, keep last snapshot", zap.Error(err))
			}
		}
	}
}

// Refresh 从存储拉取 active/sent 实例
func (s *Session) Refresh(ctx context.Context) error {
	occs, err := s.store.ListOccurrences(ctx, ActionableStatuses)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.engine.Refresh(occs)
	s.mu.Unlock()
	return nil
}

// Step 推进一次状态机，漏服的实例交给 Dispatcher 异步处理
func (s *Session) Step(ctx context.Context, now time.Time) *Presentation {
	s.mu.Lock()
	res := s.engine.Tick(now)
	s.mu.Unlock()

	for _, occ := range res.Missed {
		occ := occ
		// 会话已停止时交给超时扫描兜底
		_ = s.dispatch(ctx, func(ctx context.Context) {
			_, _ = s.dispatcher.MissedDose(ctx, occ, ReasonNoResponse, now)
		})
	}
	return res.Presentation
}

// Current 即 getCurrentPresentation，没有需要展示的提醒时返回 nil
func (s *Session) Current() *Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.cfg.Clock()
	return s.engine.Current()
}

// Confirm 患者点击“完成”
func (s *Session) Confirm(ctx context.Context) (Presentation, error) {
	if s.Stopped() {
		return Presentation{}, ErrSessionStopped
	}
	now := s.cfg.Clock()

	s.mu.Lock()
	s.lastSeen = now
	pres, ok := s.engine.Acknowledge(now)
	s.mu.Unlock()
	if !ok {
		return Presentation{}, ErrNothingPresented
	}

	if err := s.dispatch(ctx, func(ctx context.Context) {
		_, _ = s.dispatcher.Acknowledge(ctx, pres.Occurrence, pres.StartedAt, now)
	}); err != nil {
		return Presentation{}, err
	}
	return pres, nil
}

// Snooze minutes<=0 使用默认时长，返回再次提醒的时间
func (s *Session) Snooze(ctx context.Context, minutes int) (time.Time, error) {
	if s.Stopped() {
		return time.Time{}, ErrSessionStopped
	}
	now := s.cfg.Clock()
	d := s.cfg.Timing.SnoozeDuration(minutes)

	s.mu.Lock()
	s.lastSeen = now
	occ, until, err := s.engine.Snooze(now, d)
	s.mu.Unlock()
	if err != nil {
		return time.Time{}, err
	}

	if err := s.dispatch(ctx, func(ctx context.Context) {
		_, _ = s.dispatcher.Snooze(ctx, occ, until, now)
	}); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

func (s *Session) SetCaregiverView(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.cfg.Clock()
	s.engine.SetCaregiverView(on)
}

// LastSeen 最近一次被调用的时间，用于回收空闲会话
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Wait 等待已派发的写入完成
func (s *Session) Wait() {
	s.pending.Wait()
}

// Stopped Stop 之后为 true
func (s *Session) Stopped() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.stopped
}

func (s *Session) dispatch(ctx context.Context, fn func(context.Context)) error {
	s.runMu.Lock()
	if s.stopped {
		s.runMu.Unlock()
		s.logger.Warn("Session stopped, drop reminder write")
		return ErrSessionStopped
	}
	s.pending.Add(1)
	s.runMu.Unlock()

	go func() {
		defer s.pending.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
		fn(wctx)
	}()
	return nil
}
