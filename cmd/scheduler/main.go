package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/internal/repository"
	"CareCompanion/internal/schedule"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/otel"
	"CareCompanion/pkg/snowflake"
	"CareCompanion/storage"
	"CareCompanion/storage/database"
)

func main() {
	config.MustValidate()

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	shutdownOtel := otel.Setup(ctx, "scheduler")
	defer func() {
		_ = shutdownOtel(context.Background())
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	// 考虑与 worker 和 server 作区分
	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	repo := repository.NewReminderRepository(database.DB())

	go runGenerateLoop(ctx, schedule.NewGenerator(repo, config.Cfg.ReminderGenerateHorizon))
	go runOverdueLoop(ctx, schedule.NewSweeper(repo, service.Overdue(), config.Cfg.ReminderOverdueAfter))

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runGenerateLoop 按周期规则展开未来一段时间的提醒实例，启动时先跑一次
func runGenerateLoop(ctx context.Context, g *schedule.Generator) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := g.Run(runCtx); err != nil {
			logger.Logger.Error("Occurrence generation run failed", zap.Error(err))
		}
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOverdueLoop 兜底扫描，没有会话在跑的患者也能触发漏服药通知
func runOverdueLoop(ctx context.Context, s *schedule.Sweeper) {
	interval := 5 * time.Minute
	if config.Cfg.IsDevelopment() {
		interval = time.Minute
		logger.Logger.Info("Overdue sweep running in development mode with 1m interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			n, err := s.Run(runCtx)
			if err != nil {
				logger.Logger.Error("Overdue sweep run failed", zap.Error(err))
			} else if n > 0 {
				logger.Logger.Info("Overdue sweep resolved occurrences", zap.Int("count", n))
			}
			cancel()
		}
	}
}
