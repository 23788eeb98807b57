package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/pkg/database"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/metrics"
	"CareCompanion/pkg/mq"
	"CareCompanion/pkg/redis"
)

// Setup 按配置启用导出器并注册各组件的指标
// 未启用时指标写入全局 noop provider，返回的 ShutdownFunc 为空操作
func Setup(ctx context.Context, component string) ShutdownFunc {
	shutdown := ShutdownFunc(func(context.Context) error { return nil })

	if config.Cfg.OtelEnabled {
		fn, err := InitOpenTelemetry(ctx, Config{
			ServiceName:  config.Cfg.ServiceName + "-" + component,
			Environment:  config.Cfg.Environment,
			OTLPEndpoint: config.Cfg.OtelEndpoint,
			Insecure:     config.Cfg.OtelInsecure,
		})
		if err != nil {
			logger.Logger.Warn("OpenTelemetry disabled", zap.Error(err))
		} else {
			shutdown = fn
		}
	}

	meter := otel.Meter(namespace)
	inits := map[string]func() error{
		"app":      metrics.InitMetrics,
		"database": func() error { return database.InitDatabaseMetrics(meter) },
		"redis":    func() error { return redis.InitRedisMetrics(meter) },
		"mq":       func() error { return mq.InitMQMetrics(meter) },
	}
	for name, fn := range inits {
		if err := fn(); err != nil {
			logger.Logger.Warn("Failed to register metrics", zap.String("group", name), zap.Error(err))
		}
	}

	return shutdown
}
