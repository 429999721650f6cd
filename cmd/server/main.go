package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hems-scheduler/backend/config"
	"hems-scheduler/backend/internal/api/handler"
	"hems-scheduler/backend/internal/api/router"
	"hems-scheduler/backend/internal/clock"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/notify"
	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/internal/service"
	"hems-scheduler/backend/pkg/database"
	"hems-scheduler/backend/pkg/jwt"
	applogger "hems-scheduler/backend/pkg/logger"
	"hems-scheduler/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 同步表结构
	if err := database.RunMigrations(db, cfg.Database.Driver, logger, model.AllModels()...); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单、限流与 Redis 事件渠道将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// nil *redis.Client 不能直接作为接口传入
	var (
		publisher notify.Publisher
		blacklist service.TokenBlacklist
	)
	if rdb != nil {
		publisher = rdb
		blacklist = rdb
	}

	// 5. 事件投递渠道
	notifier, err := notify.Build(cfg, publisher, logger)
	if err != nil {
		logger.Fatal("初始化事件渠道失败", zap.Error(err))
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	loc, err := cfg.Server.Location()
	if err != nil {
		logger.Fatal("解析时区失败", zap.Error(err))
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(service.Deps{
		Repo:          repo,
		JWT:           jwtMgr,
		Blacklist:     blacklist,
		Notifier:      notifier,
		Clock:         clock.NewSystem(),
		NotifyTimeout: cfg.Notify.Timeout,
		Location:      loc,
		Logger:        logger,
	})
	h := handler.NewHandler(svc, cfg.Auth.Cookie, repo)

	// 8. 种子数据
	if err := seed(cfg, svc, logger); err != nil {
		logger.Fatal("写入种子数据失败", zap.Error(err))
	}

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭事件渠道（Kafka writer 需要刷新缓冲）
	if err := notifier.Close(); err != nil {
		logger.Error("关闭事件渠道异常", zap.Error(err))
	}

	// 关闭数据库连接
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// seed 写入默认时间段与管理员；按配置创建当前季度
func seed(cfg *config.Config, svc *service.Service, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := svc.TimeSlot.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("时间段: %w", err)
	}

	created, err := svc.Auth.SeedDefaultAdmin(ctx, cfg.Auth.DefaultAdmin)
	if err != nil {
		return fmt.Errorf("管理员: %w", err)
	}
	if created && cfg.Auth.UsesDefaultAdminPassword() {
		logger.Warn("默认管理员使用初始密码，请登录后立即修改",
			zap.String("username", cfg.Auth.DefaultAdmin.Username),
		)
	}

	if cfg.Seed.CurrentQuarter {
		created, err = svc.Quarter.SeedCurrentQuarter(ctx)
		if err != nil {
			return fmt.Errorf("季度: %w", err)
		}
		if created {
			logger.Info("已创建当前季度")
		}
	}
	return nil
}
