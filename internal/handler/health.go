package handler

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/service"
)

// Health GET /healthz
func Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": service.Sessions().Count(),
	})
}
