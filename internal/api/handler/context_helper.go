package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"hems-scheduler/backend/internal/service"
	"hems-scheduler/backend/pkg/response"
)

// 认证中间件写入 gin.Context 的键
const (
	CtxAdminID  = "admin_id"
	CtxUsername = "username"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// MustGetAdminID 从 Gin 上下文中安全提取 admin_id。
// 如果认证中间件未正确注入 admin_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetAdminID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxAdminID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenInfo 提取当前 Token 的 jti 与过期时间，缺失时返回零值
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(CtxTokenJTI)
	exp, _ := c.Get(CtxTokenExp)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// respondCommonError 各模块共享的兜底映射：参数校验 → 400，其余 → 500
func respondCommonError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrValidation) {
		response.BadRequest(c, 10001, err.Error())
		return
	}
	response.InternalError(c)
}
