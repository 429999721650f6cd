package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hems-scheduler/backend/config"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/pkg/database"
)

const defaultTestDSN = "host=localhost port=5432 user=postgres password=postgres dbname=hems_scheduler_test sslmode=disable TimeZone=UTC"

// NewTestDB 创建独立的内存 SQLite 数据库并同步表结构
// 单连接保证每个测试看到同一个内存库，也复现了生产上的单写者模型
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), database.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := database.RunMigrations(db, config.DriverSQLite, zap.NewNop(), model.AllModels()...); err != nil {
		t.Fatalf("同步表结构失败: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewPostgresDB 连接集成测试用 Postgres 并执行版本化迁移，不可达时跳过
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("跳过 Postgres 集成测试: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		t.Skipf("跳过 Postgres 集成测试: %v", err)
	}

	if err := database.RunMigrations(db, config.DriverPostgres, zap.NewNop()); err != nil {
		t.Fatalf("执行迁移失败: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// TruncateAll 清空业务表（Postgres 集成测试用）
func TruncateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`TRUNCATE speaker_registrations, lecture_slots, quarters, time_slots, admin_users CASCADE`).Error
	if err != nil {
		t.Fatalf("清空数据失败: %v", err)
	}
}

// SeedTimeSlots 写入默认时间段，返回按开始时间排序的结果
func SeedTimeSlots(t *testing.T, db *gorm.DB) []model.TimeSlot {
	t.Helper()

	slots := model.DefaultTimeSlots()
	if err := db.Create(&slots).Error; err != nil {
		t.Fatalf("写入时间段失败: %v", err)
	}
	return slots
}

// CreateQuarter 直接写入季度及其全部讲座时段，返回按时间排序的时段
func CreateQuarter(t *testing.T, db *gorm.DB, year, number int, meetingDate string) (*model.Quarter, []model.LectureSlot) {
	t.Helper()

	var timeSlots []model.TimeSlot
	if err := db.Order("start_time ASC").Find(&timeSlots).Error; err != nil {
		t.Fatalf("查询时间段失败: %v", err)
	}

	quarter := &model.Quarter{
		Year:          year,
		QuarterNumber: number,
		MeetingDate:   meetingDate,
		IsActive:      true,
	}
	if err := db.Create(quarter).Error; err != nil {
		t.Fatalf("创建季度失败: %v", err)
	}

	slots := make([]model.LectureSlot, 0, len(timeSlots))
	for _, ts := range timeSlots {
		slots = append(slots, model.LectureSlot{
			QuarterID:   quarter.QuarterID,
			TimeSlotID:  ts.TimeSlotID,
			IsAvailable: true,
		})
	}
	if len(slots) > 0 {
		if err := db.Create(&slots).Error; err != nil {
			t.Fatalf("创建讲座时段失败: %v", err)
		}
	}
	return quarter, slots
}

// AssertSlotInvariant 校验：时段不可用 当且仅当 存在 confirmed 报名；且每个时段至多一条 confirmed
func AssertSlotInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()

	var slots []model.LectureSlot
	if err := db.Find(&slots).Error; err != nil {
		t.Fatalf("查询讲座时段失败: %v", err)
	}

	for _, slot := range slots {
		var confirmed int64
		err := db.Model(&model.SpeakerRegistration{}).
			Where("lecture_slot_id = ? AND status = ?", slot.LectureSlotID, model.RegistrationStatusConfirmed).
			Count(&confirmed).Error
		if err != nil {
			t.Fatalf("统计报名失败: %v", err)
		}
		if confirmed > 1 {
			t.Errorf("时段 %s 存在 %d 条 confirmed 报名", slot.LectureSlotID, confirmed)
		}
		if slot.IsAvailable == (confirmed > 0) {
			t.Errorf("时段 %s 状态不一致: is_available=%v confirmed=%d", slot.LectureSlotID, slot.IsAvailable, confirmed)
		}
	}
}
