package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/response"
)

// GetMe GET /v1/users/me
func GetMe(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	resp, err := service.User().Me(ctx, uid)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// UpdatePhone 照护者登记接收短信的手机号
// PUT /v1/users/me/phone
func UpdatePhone(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	var req dto.UpdatePhoneRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if err := service.User().UpdatePhone(ctx, uid, req.Phone); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
