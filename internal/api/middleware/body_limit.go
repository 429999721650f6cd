package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hems-scheduler/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// 声明的 Content-Length 超限直接返回 413；未声明长度的请求体在读取时截断，
// 由绑定失败返回 400
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
