package service

// 提醒会话管理：每个患者在本实例上最多一个会话，只存在内存中

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/reminder"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/metrics"
)

type managedSession struct {
	id        string
	patientID int64
	startedAt time.Time
	session   *reminder.Session
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*managedSession

	// 会话循环的生命周期独立于请求
	baseCtx context.Context
	cancel  context.CancelFunc

	idleTimeout time.Duration
	now         func() time.Time
	factory     func(ctx context.Context, patientID int64) (*reminder.Session, error)
	logger      *zap.Logger
	reaperOnce  sync.Once
}

var (
	sessionManager *SessionManager
	sessionOnce    sync.Once
)

func Sessions() *SessionManager {
	sessionOnce.Do(func() {
		sessionManager = NewSessionManager(config.Cfg.ReminderSessionIdle, newReminderSession)
	})
	return sessionManager
}

func NewSessionManager(idleTimeout time.Duration, factory func(context.Context, int64) (*reminder.Session, error)) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		sessions:    make(map[int64]*managedSession),
		baseCtx:     ctx,
		cancel:      cancel,
		idleTimeout: idleTimeout,
		now:         time.Now,
		factory:     factory,
		logger:      logger.Logger.With(zap.String("component", "session_manager")),
	}
}

func newReminderSession(ctx context.Context, patientID int64) (*reminder.Session, error) {
	rt, err := newPatientRuntime(ctx, patientID)
	if err != nil {
		return nil, err
	}
	cfg := config.Cfg
	return reminder.NewSession(rt.store, rt.dispatcher, reminder.SessionConfig{
		Timing:          reminderTiming(),
		TickInterval:    cfg.ReminderTickInterval,
		RefreshInterval: cfg.ReminderRefreshInterval,
	}, logger.Logger.With(zap.Int64("patient_id", patientID))), nil
}

// Mount 挂载会话，已存在时直接返回原会话
func (m *SessionManager) Mount(ctx context.Context, patientID int64) (*dto.MountSessionResponse, error) {
	m.startReaper()

	m.mu.Lock()
	if ms, ok := m.sessions[patientID]; ok {
		m.mu.Unlock()
		return mountResponse(ms), nil
	}
	m.mu.Unlock()

	sess, err := m.factory(ctx, patientID)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.PatientOnly
		}
		return nil, err
	}

	ms := &managedSession{
		id:        uuid.NewString(),
		patientID: patientID,
		startedAt: m.now(),
		session:   sess,
	}

	m.mu.Lock()
	if existing, ok := m.sessions[patientID]; ok {
		// 并发挂载，保留先到的会话
		m.mu.Unlock()
		return mountResponse(existing), nil
	}
	m.sessions[patientID] = ms
	m.mu.Unlock()

	sess.Start(m.baseCtx)
	metrics.AddActiveSessions(ctx, 1)
	m.logger.Info("Reminder session mounted",
		zap.Int64("patient_id", patientID),
		zap.String("session_id", ms.id),
	)
	return mountResponse(ms), nil
}

func mountResponse(ms *managedSession) *dto.MountSessionResponse {
	return &dto.MountSessionResponse{
		SessionID: ms.id,
		PatientID: ms.patientID,
		StartedAt: ms.startedAt,
	}
}

// Unmount 卸载会话，停止所有定时器
func (m *SessionManager) Unmount(ctx context.Context, patientID int64) error {
	m.mu.Lock()
	ms, ok := m.sessions[patientID]
	if ok {
		delete(m.sessions, patientID)
	}
	m.mu.Unlock()

	if !ok {
		return errors.SessionNotFound
	}
	ms.session.Stop()
	metrics.AddActiveSessions(ctx, -1)
	m.logger.Info("Reminder session unmounted",
		zap.Int64("patient_id", patientID),
		zap.String("session_id", ms.id),
	)
	return nil
}

func (m *SessionManager) get(patientID int64) (*reminder.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[patientID]
	if !ok {
		return nil, errors.SessionNotFound
	}
	return ms.session, nil
}

// Current 当前展示内容，同时刷新会话的活跃时间
func (m *SessionManager) Current(patientID int64) (*dto.PresentationResponse, error) {
	sess, err := m.get(patientID)
	if err != nil {
		return nil, err
	}
	return toPresentation(sess.Current()), nil
}

func (m *SessionManager) Confirm(ctx context.Context, patientID int64) (*dto.PresentationResponse, error) {
	sess, err := m.get(patientID)
	if err != nil {
		return nil, err
	}
	pres, err := sess.Confirm(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return toPresentation(&pres), nil
}

func (m *SessionManager) Snooze(ctx context.Context, patientID int64, minutes int) (*dto.SnoozeResponse, error) {
	if minutes < 0 || minutes > config.Cfg.ReminderMaxSnoozeMinutes {
		return nil, errors.SnoozeMinutesInvalid
	}
	sess, err := m.get(patientID)
	if err != nil {
		return nil, err
	}

	current := sess.Current()
	until, err := sess.Snooze(ctx, minutes)
	if err != nil {
		return nil, sessionError(err)
	}

	resp := &dto.SnoozeResponse{SnoozedUntil: until}
	if current != nil {
		resp.OccurrenceID = current.Occurrence.ID
	}
	return resp, nil
}

// SetView mode 为 caregiver 时暂停向患者展示，不修改任何数据
func (m *SessionManager) SetView(patientID int64, mode string) error {
	var caregiver bool
	switch mode {
	case "caregiver":
		caregiver = true
	case "patient":
	default:
		return errors.ViewModeInvalid
	}

	sess, err := m.get(patientID)
	if err != nil {
		return err
	}
	sess.SetCaregiverView(caregiver)
	return nil
}

func sessionError(err error) error {
	switch {
	case stderrors.Is(err, reminder.ErrNothingPresented):
		return errors.NoActiveReminder
	case stderrors.Is(err, reminder.ErrSnoozeUnavailable):
		return errors.SnoozeUnavailable
	case stderrors.Is(err, reminder.ErrSessionStopped):
		return errors.SessionNotFound
	default:
		return err
	}
}

func toPresentation(p *reminder.Presentation) *dto.PresentationResponse {
	if p == nil {
		return &dto.PresentationResponse{Active: false}
	}
	occ := p.Occurrence
	due := occ.NextDueTime
	return &dto.PresentationResponse{
		Active:             true,
		OccurrenceID:       occ.ID,
		ReminderID:         occ.ReminderID,
		Type:               string(occ.Reminder.Type),
		Title:              occ.Reminder.Title,
		Message:            occ.Reminder.Message,
		PhotoURL:           occ.Reminder.PhotoURL,
		Phase:              string(p.Phase),
		DueAt:              &due,
		CountdownRemaining: p.CountdownRemaining,
		MinutesUntilDue:    p.MinutesUntilDue,
		CanSnooze:          p.Phase == reminder.PhaseInitial,
	}
}

// startReaper 定期回收长时间没有轮询的会话
func (m *SessionManager) startReaper() {
	if m.idleTimeout <= 0 {
		return
	}
	m.reaperOnce.Do(func() {
		interval := m.idleTimeout / 4
		if interval < time.Second {
			interval = time.Second
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-m.baseCtx.Done():
					return
				case <-ticker.C:
					m.ReapIdle(m.baseCtx)
				}
			}
		}()
	})
}

// ReapIdle 卸载空闲超过 idleTimeout 的会话，返回回收数量
func (m *SessionManager) ReapIdle(ctx context.Context) int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var idle []*managedSession
	for id, ms := range m.sessions {
		if ms.session.LastSeen().Before(cutoff) {
			idle = append(idle, ms)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, ms := range idle {
		ms.session.Stop()
		metrics.AddActiveSessions(ctx, -1)
		m.logger.Info("Idle reminder session reaped",
			zap.Int64("patient_id", ms.patientID),
			zap.String("session_id", ms.id),
		)
	}
	return len(idle)
}

// StopAll 进程退出时调用
func (m *SessionManager) StopAll(ctx context.Context) {
	m.mu.Lock()
	all := make([]*managedSession, 0, len(m.sessions))
	for id, ms := range m.sessions {
		all = append(all, ms)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.cancel()
	var wg sync.WaitGroup
	for _, ms := range all {
		wg.Add(1)
		go func(ms *managedSession) {
			defer wg.Done()
			ms.session.Stop()
		}(ms)
	}
	wg.Wait()
	metrics.AddActiveSessions(ctx, -int64(len(all)))
	m.logger.Info("All reminder sessions stopped", zap.Int("count", len(all)))
}

// Count 当前会话数
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
