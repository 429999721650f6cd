package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/internal/repository"
)

// CalendarService 为已确认的报名生成 iCalendar 邀请
type CalendarService interface {
	Invite(ctx context.Context, registrationID string) ([]byte, string, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewCalendarService loc 为例会所在时区，nil 时使用 UTC
func NewCalendarService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{repo: repo, loc: loc, logger: logger}
}

// Invite 返回 .ics 内容与建议文件名；已取消的报名返回 ErrRegistrationNotFound
// 下载地址无需登录，内容只含公开目录已展示的信息（讲者姓名、题目、时段），不含联系方式
func (s *calendarService) Invite(ctx context.Context, registrationID string) ([]byte, string, error) {
	reg, err := s.repo.Registration.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRegistrationNotFound
		}
		s.logger.Error("查询报名失败", zap.String("id", registrationID), zap.Error(err))
		return nil, "", storageError(err)
	}
	if !reg.IsConfirmed() {
		return nil, "", ErrRegistrationNotFound
	}

	slot := reg.LectureSlot
	if slot == nil || slot.Quarter == nil || slot.TimeSlot == nil {
		return nil, "", ErrSlotNotFound
	}

	start, err := s.at(slot.Quarter.MeetingDate, slot.TimeSlot.StartTime)
	if err != nil {
		return nil, "", err
	}
	end, err := s.at(slot.Quarter.MeetingDate, slot.TimeSlot.EndTime)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//HEMS Scheduler//Speaker Registration//EN")

	event := cal.AddEvent(reg.RegistrationID + "@hems-scheduler")
	event.SetCreatedTime(reg.RegisteredAt)
	event.SetDtStampTime(reg.RegisteredAt)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(fmt.Sprintf("%s Education Meeting: %s", slot.Quarter.Label(), reg.TopicTitle))
	event.SetDescription(fmt.Sprintf("Speaker: %s\nSession: %s", reg.SpeakerName, slot.TimeSlot.DisplayName))

	filename := fmt.Sprintf("hems_%dQ%d_%s.ics", slot.Quarter.Year, slot.Quarter.QuarterNumber, slot.TimeSlot.StartTime[:2]+slot.TimeSlot.StartTime[3:])
	return []byte(cal.Serialize()), filename, nil
}

// at 将规范格式的日期与时刻组合为例会时区下的时间点
func (s *calendarService) at(date, clockTime string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clockTime, s.loc)
	if err != nil {
		return time.Time{}, storageError(fmt.Errorf("无法解析时段时间 %s %s: %w", date, clockTime, err))
	}
	return t, nil
}
