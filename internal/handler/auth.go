package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/response"
)

// RefreshToken 刷新访问令牌
// POST /v1/auth/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req dto.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.RefreshToken == "" {
		response.Error(ctx, c, errors.InvalidRequest)
		return
	}
	resp, err := service.Auth().RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// IssueDevToken 开发环境签发令牌
// POST /v1/auth/dev/token
func IssueDevToken(ctx context.Context, c *app.RequestContext) {
	var req dto.DevTokenRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	resp, err := service.Auth().IssueDevToken(ctx, req.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// Logout 吊销 refresh token
// POST /v1/auth/logout
func Logout(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	if err := service.Auth().Logout(ctx, uid); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
