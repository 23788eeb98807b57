package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/middleware"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/response"
)

// currentUserID 取当前登录用户，失败时已写入 401
func currentUserID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	uid, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return 0, false
	}
	return uid, true
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pathID 解析路径参数，失败时已写入 400
func pathID(ctx context.Context, c *app.RequestContext, name string) (int64, bool) {
	id, ok := parseID(c.Param(name))
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest)
	}
	return id, ok
}

func queryID(ctx context.Context, c *app.RequestContext, name string) (int64, bool) {
	id, ok := parseID(c.Query(name))
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest)
	}
	return id, ok
}

// queryLimit 缺省或非法时返回 0，由 service 使用默认值
func queryLimit(c *app.RequestContext) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}
