package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Redis 相关指标，未初始化时不记录
	redisCommandsTotal   metric.Int64Counter
	redisCommandDuration metric.Float64Histogram
	redisCacheLookups    metric.Int64Counter
)

// InitRedisMetrics 初始化 Redis 指标
func InitRedisMetrics(meter metric.Meter) error {
	var err error

	redisCommandsTotal, err = meter.Int64Counter(
		"redis.commands.total",
		metric.WithDescription("Total number of Redis commands"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	redisCommandDuration, err = meter.Float64Histogram(
		"redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		return err
	}

	redisCacheLookups, err = meter.Int64Counter(
		"redis.cache.lookups",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	return err
}

// RecordCacheLookup 记录缓存命中情况
func RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	if redisCacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	redisCacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.String("result", result),
	))
}

// TracingHook Redis 追踪 Hook
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

var _ redis.Hook = (*TracingHook)(nil)

func NewTracingHook(serviceName string, db int) *TracingHook {
	return &TracingHook{
		tracer: otel.Tracer(serviceName + ".redis"),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
		},
	}
}

func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
			trace.WithAttributes(semconv.DBOperation(cmd.Name())),
		)
		defer span.End()

		start := time.Now()
		err := next(ctx, cmd)
		th.finish(ctx, span, cmd.Name(), start, err)
		return err
	}
}

func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
			trace.WithAttributes(attribute.Int("db.redis.num_cmd", len(cmds))),
		)
		defer span.End()

		start := time.Now()
		err := next(ctx, cmds)
		th.finish(ctx, span, "pipeline", start, err)
		return err
	}
}

func (th *TracingHook) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	status := "success"
	// redis.Nil 表示 key 不存在，不算错误
	if err != nil && !errors.Is(err, redis.Nil) {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if redisCommandsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("status", status),
	)
	redisCommandsTotal.Add(ctx, 1, attrs)
	redisCommandDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
