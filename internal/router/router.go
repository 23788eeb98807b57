package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"CareCompanion/internal/handler"
	"CareCompanion/internal/middleware"
	"CareCompanion/internal/model"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.MetricsMiddleware())

	h.GET("/healthz", handler.Health)

	v1 := h.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig()))

	// 认证相关路由
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(middleware.AuthRateLimitConfig))
	{
		auth.POST("/token/refresh", handler.RefreshToken)
		auth.POST("/dev/token", handler.IssueDevToken)
		auth.POST("/logout", middleware.AuthMiddleware(), handler.Logout)
	}

	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", handler.GetMe)
		users.PUT("/me/phone", middleware.RequireRole(model.RoleCaregiver), handler.UpdatePhone)
	}

	// 患者端提醒会话
	sessions := v1.Group("/sessions")
	sessions.Use(middleware.AuthMiddleware(), middleware.RequireRole(model.RolePatient))
	{
		sessions.POST("", handler.MountSession)
		sessions.DELETE("", handler.UnmountSession)
		sessions.GET("/current", handler.GetCurrentPresentation)
		sessions.POST("/current/confirm", handler.ConfirmReminder)
		sessions.POST("/current/snooze", handler.SnoozeReminder)
		sessions.PUT("/view", handler.SetViewMode)
	}

	assistant := v1.Group("/assistant")
	assistant.Use(
		middleware.AuthMiddleware(),
		middleware.RequireRole(model.RolePatient),
		middleware.RateLimitMiddleware(middleware.AssistantRateLimitConfig),
	)
	{
		assistant.POST("/chat", handler.AssistantChat)
	}

	// 照护者端
	caregiver := v1.Group("")
	caregiver.Use(middleware.AuthMiddleware(), middleware.RequireRole(model.RoleCaregiver))
	{
		caregiver.POST("/reminders", handler.CreateReminder)
		caregiver.GET("/reminders", handler.ListReminders)
		caregiver.PATCH("/reminders/:id", handler.UpdateReminder)
		caregiver.POST("/reminders/:id/send", handler.SendReminder)

		caregiver.GET("/alerts", handler.ListAlerts)
		caregiver.POST("/alerts/:id/ack", handler.AckAlert)
		caregiver.GET("/activity", handler.ListActivity)

		caregiver.POST("/medications", handler.CreateMedication)
		caregiver.GET("/medications", handler.ListMedications)
	}
}
