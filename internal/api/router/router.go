package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hems-scheduler/backend/config"
	"hems-scheduler/backend/internal/api/handler"
	"hems-scheduler/backend/internal/api/middleware"
	"hems-scheduler/backend/pkg/jwt"
	"hems-scheduler/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不启用 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// nil *redis.Client 不能直接作为接口传入
	var (
		blacklist middleware.TokenChecker
		limiter   middleware.Limiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	adminAuth := middleware.AdminAuth(jwtMgr, blacklist, cfg.Auth.Cookie.Name, logger)
	rateLimit := middleware.RateLimit(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window)

	// ── 健康检查 ──
	r.GET("/health", h.Health.Check)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 时间段（公开，只读）
		v1.GET("/time-slots", h.TimeSlot.List)

		// 季度：公开目录 + 管理接口
		quarters := v1.Group("/quarters")
		{
			quarters.GET("/active", h.Quarter.ListActive)
			quarters.GET("/:id/slots", h.Quarter.ListSlots)

			quarters.GET("", adminAuth, h.Quarter.List)
			quarters.POST("", adminAuth, h.Quarter.Create)
			quarters.GET("/:id", adminAuth, h.Quarter.Get)
			quarters.PUT("/:id", adminAuth, h.Quarter.Update)
			quarters.DELETE("/:id", adminAuth, h.Quarter.Delete)
		}

		// 报名：讲者提交 + 管理接口
		registrations := v1.Group("/registrations")
		{
			registrations.POST("", rateLimit, h.Registration.Register)
			registrations.POST("/check-availability", h.Registration.CheckAvailability)
			registrations.GET("/:id/calendar.ics", h.Registration.Calendar)

			registrations.GET("", adminAuth, h.Registration.List)
			registrations.GET("/:id", adminAuth, h.Registration.Get)
			registrations.PUT("/:id", adminAuth, h.Registration.Update)
			registrations.POST("/:id/cancel", adminAuth, h.Registration.Cancel)
			registrations.DELETE("/:id", adminAuth, h.Registration.Delete)
		}

		// 管理员
		admin := v1.Group("/admin")
		{
			admin.POST("/login", rateLimit, h.Auth.Login)

			authorized := admin.Group("")
			authorized.Use(adminAuth)
			{
				authorized.POST("/logout", h.Auth.Logout)
				authorized.GET("/me", h.Auth.Me)
				authorized.PUT("/password", h.Auth.ChangePassword)
				authorized.GET("/dashboard", h.Dashboard.Get)
				authorized.GET("/export/registrations", h.Export.ExportRegistrations)
			}
		}
	}

	return r
}
