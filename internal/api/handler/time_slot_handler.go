package handler

import (
	"github.com/gin-gonic/gin"

	"hems-scheduler/backend/internal/service"
	"hems-scheduler/backend/pkg/response"
)

// TimeSlotHandler 全局时间段 HTTP 处理器（只读）
type TimeSlotHandler struct {
	timeSlotSvc service.TimeSlotService
}

// NewTimeSlotHandler 创建 TimeSlotHandler
func NewTimeSlotHandler(timeSlotSvc service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{timeSlotSvc: timeSlotSvc}
}

// List 获取时间段列表
// GET /api/v1/time-slots
func (h *TimeSlotHandler) List(c *gin.Context) {
	slots, err := h.timeSlotSvc.List(c.Request.Context())
	if err != nil {
		respondCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}
