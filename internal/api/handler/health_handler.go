package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"hems-scheduler/backend/pkg/response"
)

// Pinger 依赖探活
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check 数据库可用时返回 200，否则 503
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.ServiceUnavailable(c, 10006, "数据库不可用")
			return
		}
	}

	response.OK(c, gin.H{"status": "ok"})
}
