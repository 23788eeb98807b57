package database

import (
	"errors"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey  = "otel:span"
	startKey = "otel:start_time"
)

var (
	// 数据库相关指标，未初始化时不记录
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram

	sensitiveAssign = regexp.MustCompile(`(?i)(password|token|secret|phone_cipher)\s*=\s*'[^']*'`)
)

// InitDatabaseMetrics 初始化数据库指标
func InitDatabaseMetrics(meter metric.Meter) error {
	var err error

	dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return err
	}

	dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	return err
}

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName  string
	MaxSQLLength int
}

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	tracer trace.Tracer
	config PluginConfig
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = "carecompanion"
	}
	if config.MaxSQLLength <= 0 {
		config.MaxSQLLength = 500
	}
	return &OTELPlugin{
		tracer: otel.Tracer(config.ServiceName + ".gorm"),
		config: config,
	}
}

// Name 实现 gorm.Plugin 接口
func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 为每类操作注册前后回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name      string
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"create", "db.insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "db.select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "db.update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "db.delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "db.row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "db.raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before("otel:before_"+h.name, p.before(h.operation)); err != nil {
			return err
		}
		if err := h.after("otel:after_"+h.name, p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *OTELPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := p.tracer.Start(db.Statement.Context, operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemPostgreSQL,
				semconv.DBOperation(operation),
				attribute.String("db.table", db.Statement.Table),
			),
		)
		db.InstanceSet(spanKey, span)
		db.InstanceSet(startKey, time.Now())
		db.Statement.Context = ctx
	}
}

func (p *OTELPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(
		semconv.DBStatement(p.sanitize(db.Statement.SQL.String())),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetStatus(codes.Ok, "record not found")
	default:
		status = "error"
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	if dbQueriesTotal == nil {
		return
	}
	var seconds float64
	if start, ok := db.InstanceGet(startKey); ok {
		if t, ok := start.(time.Time); ok {
			seconds = time.Since(t).Seconds()
		}
	}
	attrs := metric.WithAttributes(
		attribute.String("db.table", db.Statement.Table),
		attribute.String("db.status", status),
	)
	dbQueriesTotal.Add(db.Statement.Context, 1, attrs)
	dbQueryDuration.Record(db.Statement.Context, seconds, attrs)
}

// sanitize 截断并屏蔽敏感字段
func (p *OTELPlugin) sanitize(sql string) string {
	if len(sql) > p.config.MaxSQLLength {
		sql = sql[:p.config.MaxSQLLength] + "..."
	}
	return sensitiveAssign.ReplaceAllString(sql, "$1='***'")
}

// WithDefaultOTELPlugin 使用默认配置添加 OpenTelemetry 插件
func WithDefaultOTELPlugin(db *gorm.DB, serviceName string) error {
	return db.Use(NewOTELPlugin(PluginConfig{ServiceName: serviceName}))
}
