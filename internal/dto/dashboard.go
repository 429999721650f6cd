package dto

// DashboardResponse 管理后台概览
type DashboardResponse struct {
	TotalQuarters       int64                  `json:"total_quarters"`
	ActiveQuarters      int64                  `json:"active_quarters"`
	TotalRegistrations  int64                  `json:"total_registrations"` // confirmed
	RecentRegistrations []RegistrationResponse `json:"recent_registrations"`
	QuarterStats        []QuarterStat          `json:"quarter_stats"`
}

// QuarterStat 单个季度的报名统计
type QuarterStat struct {
	Quarter        QuarterResponse `json:"quarter"`
	ConfirmedCount int64           `json:"confirmed_count"`
	TotalSlots     int64           `json:"total_slots"`
	AvailableSlots int64           `json:"available_slots"`
}

// ExportRequest 导出参数
type ExportRequest struct {
	QuarterID string `form:"quarter_id"`
	Status    string `form:"status" binding:"omitempty,oneof=confirmed cancelled"`
	Format    string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}
