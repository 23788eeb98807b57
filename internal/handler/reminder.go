package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/response"
)

// CreateReminder 照护者创建提醒
// POST /v1/reminders
func CreateReminder(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	var req dto.CreateReminderRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	resp, err := service.Reminder().Create(ctx, uid, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListReminders GET /v1/reminders?patient_id=
func ListReminders(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	patientID, ok := queryID(ctx, c, "patient_id")
	if !ok {
		return
	}
	items, err := service.Reminder().List(ctx, uid, patientID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"count": len(items)})
}

// UpdateReminder 启用或停用
// PATCH /v1/reminders/:id
func UpdateReminder(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "id")
	if !ok {
		return
	}
	var req dto.UpdateReminderRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.Enabled == nil {
		response.Error(ctx, c, errors.InvalidRequest)
		return
	}
	resp, err := service.Reminder().SetEnabled(ctx, uid, id, *req.Enabled)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// SendReminder 立即发送一次
// POST /v1/reminders/:id/send
func SendReminder(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "id")
	if !ok {
		return
	}
	resp, err := service.Reminder().SendNow(ctx, uid, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
