package service

import (
	"regexp"
	"strings"
	"time"

	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
)

// 存储与序列化统一使用的规范格式
const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// normalizeDate 接受 YYYY-MM-DD 或 RFC3339，统一为 YYYY-MM-DD
func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.Format(dateLayout), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", validationError("日期格式应为 YYYY-MM-DD: %q", s)
	}
	return t.Format(dateLayout), nil
}

// normalizeClock 接受 H:MM / HH:MM / HH:MM:SS，统一为 HH:MM
func normalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{clockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(clockLayout), nil
		}
	}
	return "", validationError("时间格式应为 HH:MM: %q", s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// optional 空字符串存为 NULL
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ── 响应转换 ──

func toQuarterResponse(q *model.Quarter) dto.QuarterResponse {
	return dto.QuarterResponse{
		ID:            q.QuarterID,
		Year:          q.Year,
		QuarterNumber: q.QuarterNumber,
		Label:         q.Label(),
		MeetingDate:   q.MeetingDate,
		IsActive:      q.IsActive,
		CreatedAt:     formatTime(q.CreatedAt),
	}
}

func toTimeSlotResponse(ts *model.TimeSlot) dto.TimeSlotResponse {
	return dto.TimeSlotResponse{
		ID:          ts.TimeSlotID,
		StartTime:   ts.StartTime,
		EndTime:     ts.EndTime,
		DisplayName: ts.DisplayName,
	}
}

// toLectureSlotResponse occupant 为占用该时段的 confirmed 报名，可为 nil
func toLectureSlotResponse(slot *model.LectureSlot, occupant *model.SpeakerRegistration) dto.LectureSlotResponse {
	resp := dto.LectureSlotResponse{
		ID:          slot.LectureSlotID,
		QuarterID:   slot.QuarterID,
		TimeSlotID:  slot.TimeSlotID,
		IsAvailable: slot.IsAvailable,
	}
	if slot.TimeSlot != nil {
		resp.StartTime = slot.TimeSlot.StartTime
		resp.EndTime = slot.TimeSlot.EndTime
		resp.DisplayName = slot.TimeSlot.DisplayName
	}
	if !slot.IsAvailable && occupant != nil {
		name, topic := occupant.SpeakerName, occupant.TopicTitle
		resp.SpeakerName = &name
		resp.TopicTitle = &topic
	}
	return resp
}

func toRegistrationResponse(reg *model.SpeakerRegistration) dto.RegistrationResponse {
	resp := dto.RegistrationResponse{
		ID:               reg.RegistrationID,
		LectureSlotID:    reg.LectureSlotID,
		SpeakerName:      reg.SpeakerName,
		SpeakerEmail:     reg.SpeakerEmail,
		SpeakerPhone:     reg.SpeakerPhone,
		Specialty:        reg.Specialty,
		TopicTitle:       reg.TopicTitle,
		TopicDescription: reg.TopicDescription,
		Status:           reg.Status,
		RegisteredAt:     formatTime(reg.RegisteredAt),
	}
	if slot := reg.LectureSlot; slot != nil {
		resp.QuarterID = slot.QuarterID
		if slot.Quarter != nil {
			resp.QuarterLabel = slot.Quarter.Label()
			resp.MeetingDate = slot.Quarter.MeetingDate
		}
		if slot.TimeSlot != nil {
			resp.TimeSlotRange = slot.TimeSlot.Range()
		}
	}
	return resp
}
