package schedule

// 实例生成：每分钟把未来 horizon 内的重复提醒展开为实例，依赖唯一索引去重

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"CareCompanion/internal/cache"
	"CareCompanion/internal/model"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/metrics"
)

const generateLockTTL = 2 * time.Minute

type Generator struct {
	repo    *repository.ReminderRepository
	horizon time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

func NewGenerator(repo *repository.ReminderRepository, horizon time.Duration) *Generator {
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}
	return &Generator{
		repo:    repo,
		horizon: horizon,
		logger:  logger.Logger.With(zap.String("job", "generate_occurrences")),
		now:     time.Now,
	}
}

// Run 单次生成，本进程内不重入，多实例之间用 redis 锁互斥
func (g *Generator) Run(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		g.logger.Info("Generate job already running, skipping")
		return nil
	}
	g.running = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
	}()

	lock, err := cache.TryLock(ctx, "schedule:generate", generateLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire generate lock: %w", err)
	}
	if lock == nil {
		g.logger.Debug("Generate lock held by another instance")
		return nil
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn("Failed to release generate lock", zap.Error(err))
		}
	}()

	start := g.now()
	g.lastRun = start

	reminders, err := g.repo.ListRecurring(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recurring reminders: %w", err)
	}

	var total int64
	for i := range reminders {
		occs, err := Occurrences(&reminders[i], start, start.Add(g.horizon))
		if err != nil {
			// 单条规则错误不影响其他提醒
			g.logger.Warn("Skipping reminder with invalid schedule",
				zap.Int64("reminder_id", reminders[i].ID),
				zap.String("schedule", reminders[i].Schedule),
				zap.Error(err),
			)
			continue
		}

		n, err := g.repo.InsertOccurrences(ctx, occs)
		if err != nil {
			return fmt.Errorf("failed to insert occurrences for reminder %d: %w", reminders[i].ID, err)
		}
		total += n
	}

	metrics.RecordOccurrencesGenerated(ctx, int(total))
	g.logger.Info("Generate job finished",
		zap.Int("reminders", len(reminders)),
		zap.Int64("created", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Occurrences 把提醒在 [from, to] 内的到期时间转换为待插入的实例
func Occurrences(r *model.Reminder, from, to time.Time) ([]model.ReminderOccurrence, error) {
	times, err := Expand(r.Schedule, r.DTStart, from, to)
	if err != nil {
		return nil, err
	}

	occs := make([]model.ReminderOccurrence, 0, len(times))
	for _, t := range times {
		occs = append(occs, model.ReminderOccurrence{
			ReminderID:   r.ID,
			PatientID:    r.PatientID,
			ScheduledFor: t,
			NextDueTime:  t,
			Status:       model.OccurrenceStatusActive,
		})
	}
	return occs, nil
}
