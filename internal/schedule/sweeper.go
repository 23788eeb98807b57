package schedule

// 超时补偿：患者端没有会话时，到期超过 overdueAfter 仍未处理的实例判定为漏服

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"CareCompanion/internal/cache"
	"CareCompanion/internal/model"
	"CareCompanion/pkg/logger"
)

const (
	sweepLockTTL   = 5 * time.Minute
	sweepBatchSize = 200
)

type OverdueLister interface {
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.ReminderOccurrence, error)
}

// OccurrenceResolver 对单个实例执行漏服判定，false 表示已被其他路径处理
type OccurrenceResolver interface {
	ResolveOccurrence(ctx context.Context, occ *model.ReminderOccurrence, now time.Time) (bool, error)
}

type Sweeper struct {
	lister       OverdueLister
	resolver     OccurrenceResolver
	overdueAfter time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu      sync.Mutex
	running bool
}

func NewSweeper(lister OverdueLister, resolver OccurrenceResolver, overdueAfter time.Duration) *Sweeper {
	return &Sweeper{
		lister:       lister,
		resolver:     resolver,
		overdueAfter: overdueAfter,
		logger:       logger.Logger.With(zap.String("job", "overdue_sweep")),
		now:          time.Now,
	}
}

// Run 单次扫描，返回判定为漏服的数量
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Overdue sweep already running, skipping")
		return 0, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	lock, err := cache.TryLock(ctx, "schedule:overdue", sweepLockTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	if lock == nil {
		return 0, nil
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release sweep lock", zap.Error(err))
		}
	}()

	return s.sweep(ctx)
}

func (s *Sweeper) sweep(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-s.overdueAfter)

	rows, err := s.lister.ListOverdue(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue occurrences: %w", err)
	}

	missed := 0
	for i := range rows {
		applied, err := s.resolver.ResolveOccurrence(ctx, &rows[i], now)
		if err != nil {
			s.logger.Error("Failed to resolve overdue occurrence",
				zap.Int64("occurrence_id", rows[i].ID),
				zap.Int64("patient_id", rows[i].PatientID),
				zap.Error(err),
			)
			continue
		}
		if applied {
			missed++
		}
	}

	if len(rows) > 0 {
		s.logger.Info("Overdue sweep finished",
			zap.Int("candidates", len(rows)),
			zap.Int("missed", missed),
			zap.Time("cutoff", cutoff),
		)
	}
	return missed, nil
}
