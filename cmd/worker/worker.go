package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/internal/queue"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/otel"
	"CareCompanion/pkg/sms"
	"CareCompanion/pkg/snowflake"
	"CareCompanion/storage"
)

func main() {
	config.MustValidate()

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	shutdownOtel := otel.Setup(ctx, "worker")
	defer func() {
		_ = shutdownOtel(context.Background())
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	// 延迟扫描会调用 dispatcher 写入 alert，需要 snowflake
	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := sms.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize SMS service", zap.Error(err))
		logger.Logger.Info("SMS service will be disabled, caregiver alerts will not be delivered")
	}

	queue.SetAlertSender(service.Notification())
	queue.SetOverdueResolver(service.Overdue())

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	// 阻塞直到 ctx 取消
	queue.StartAllConsumers(ctx)

	logger.Logger.Info("Worker service shutting down gracefully")
}
