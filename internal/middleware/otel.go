package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	httpServerRequestTotal   metric.Int64Counter
	httpServerDuration       metric.Float64Histogram
	httpServerActiveRequests metric.Int64UpDownCounter
)

// InitMetrics 初始化 HTTP 指标
func InitMetrics(meter metric.Meter) error {
	var err error

	httpServerRequestTotal, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	httpServerDuration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return err
	}

	httpServerActiveRequests, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	return err
}

// MetricsMiddleware 记录请求指标，并把身份与请求 ID 写入当前 span
// span 本身由 hertztracing 创建
func MetricsMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if httpServerRequestTotal == nil {
			c.Next(ctx)
			return
		}

		start := time.Now()
		httpServerActiveRequests.Add(ctx, 1)
		defer httpServerActiveRequests.Add(ctx, -1)

		c.Next(ctx)

		span := trace.SpanFromContext(ctx)
		if uid, ok := GetUserID(ctx, c); ok {
			span.SetAttributes(attribute.String("enduser.id", strconv.FormatInt(uid, 10)))
		}
		if id, ok := GetIdentity(c); ok {
			span.SetAttributes(attribute.String("enduser.role", string(id.Role)))
		}
		span.SetAttributes(attribute.String("http.request_id", GetRequestID(c)))

		// 使用注册的路由模板，避免路径参数撑爆基数
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			semconv.HTTPMethod(strings.ToValidUTF8(string(c.Method()), "")),
			semconv.HTTPRoute(route),
			semconv.HTTPStatusCode(c.Response.StatusCode()),
		)
		httpServerRequestTotal.Add(ctx, 1, attrs)
		httpServerDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// NewServerTracerConfig 返回 Hertz server 的追踪选项与中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
