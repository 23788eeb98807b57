package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/response"
)

var internalError = errors.Definition{Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}

// RecoverMiddleware 捕获 panic，记录日志与 span，返回 500
func RecoverMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if r := recover(); r != nil {
				handlePanic(ctx, c, r, debug.Stack())
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, r interface{}, stack []byte) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprint(r)),
		zap.String("method", string(c.Method())),
		zap.String("path", string(c.Path())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", GetRequestID(c)),
		zap.ByteString("stack", trimStack(stack)),
	}
	if uid, ok := GetUserID(ctx, c); ok {
		fields = append(fields, zap.Int64("user_id", uid))
	}
	logger.Logger.Error("[PANIC RECOVERED]", fields...)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(fmt.Errorf("panic: %v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "panic")
	}

	if config.Cfg.IsProduction() {
		response.Error(ctx, c, internalError)
	} else {
		response.ErrorWithDetails(ctx, c, internalError, map[string]interface{}{
			"panic": fmt.Sprint(r),
		})
	}
	c.Abort()
}

// trimStack 去掉 runtime 与 debug 自身的帧
func trimStack(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")
	kept := lines[:0]
	for i := 0; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "runtime/") || strings.HasPrefix(lines[i], "panic(") {
			i++ // 跳过对应的文件行
			continue
		}
		kept = append(kept, lines[i])
	}
	return []byte(strings.Join(kept, "\n"))
}
