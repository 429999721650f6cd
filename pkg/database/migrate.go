package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/config"
)

//go:embed migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations 执行数据库迁移
//   - postgres: 使用版本化 SQL 迁移（golang-migrate）
//   - sqlite:   嵌入式单文件库使用 GORM AutoMigrate 同步表结构
func RunMigrations(db *gorm.DB, driver string, logger *zap.Logger, models ...interface{}) error {
	if driver != config.DriverPostgres {
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("同步表结构失败: %w", err)
		}
		logger.Info("数据库表结构同步完成", zap.Int("tables", len(models)))
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	drv, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", drv)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}
