package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/response"
)

// MountSession 患者端进入提醒界面
// POST /v1/sessions
func MountSession(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	resp, err := service.Sessions().Mount(ctx, uid)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// UnmountSession 患者端离开提醒界面
// DELETE /v1/sessions
func UnmountSession(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	if err := service.Sessions().Unmount(ctx, uid); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// GetCurrentPresentation 轮询当前展示的提醒
// GET /v1/sessions/current
func GetCurrentPresentation(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	resp, err := service.Sessions().Current(uid)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ConfirmReminder 患者确认完成
// POST /v1/sessions/current/confirm
func ConfirmReminder(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	resp, err := service.Sessions().Confirm(ctx, uid)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// SnoozeReminder 稍后提醒，minutes 为 0 使用默认时长
// POST /v1/sessions/current/snooze
func SnoozeReminder(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	var req dto.SnoozeRequest
	if len(c.Request.Body()) > 0 {
		if err := c.Bind(&req); err != nil {
			response.BindError(ctx, c, err)
			return
		}
	}
	resp, err := service.Sessions().Snooze(ctx, uid, req.Minutes)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// SetViewMode 照护者接管设备时切换视图
// PUT /v1/sessions/view
func SetViewMode(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	var req dto.ViewModeRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if err := service.Sessions().SetView(uid, req.Mode); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
