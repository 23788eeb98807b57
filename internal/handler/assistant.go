package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/response"
)

// AssistantChat 语音模式对话
// POST /v1/assistant/chat
func AssistantChat(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	var req dto.ChatRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	resp, err := service.Assistant().Chat(ctx, uid, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
