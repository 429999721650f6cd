package handler

import (
	"github.com/gin-gonic/gin"

	"hems-scheduler/backend/internal/service"
	"hems-scheduler/backend/pkg/response"
)

// DashboardHandler 管理后台概览
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Get 概览统计
// GET /api/v1/admin/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	result, err := h.dashboardSvc.Get(c.Request.Context())
	if err != nil {
		respondCommonError(c, err)
		return
	}

	response.OK(c, result)
}
