package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
)

// TimeSlotService 全局时间段业务接口
type TimeSlotService interface {
	List(ctx context.Context) ([]dto.TimeSlotResponse, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type timeSlotService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimeSlotService 创建 TimeSlotService 实例
func NewTimeSlotService(repo *repository.Repository, logger *zap.Logger) TimeSlotService {
	return &timeSlotService{repo: repo, logger: logger}
}

func (s *timeSlotService) List(ctx context.Context) ([]dto.TimeSlotResponse, error) {
	slots, err := s.repo.TimeSlot.List(ctx)
	if err != nil {
		s.logger.Error("列出时间段失败", zap.Error(err))
		return nil, storageError(err)
	}

	result := make([]dto.TimeSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toTimeSlotResponse(&slots[i]))
	}
	return result, nil
}

// SeedDefaults 写入缺失的默认时间段，返回新写入数量；已存在的按开始时间跳过
func (s *timeSlotService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, ts := range model.DefaultTimeSlots() {
		start, err := normalizeClock(ts.StartTime)
		if err != nil {
			return created, err
		}
		end, err := normalizeClock(ts.EndTime)
		if err != nil {
			return created, err
		}

		_, err = s.repo.TimeSlot.GetByStartTime(ctx, start)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, storageError(err)
		}

		slot := &model.TimeSlot{StartTime: start, EndTime: end, DisplayName: ts.DisplayName}
		if err := s.repo.TimeSlot.Create(ctx, slot); err != nil {
			s.logger.Error("写入默认时间段失败", zap.String("start", start), zap.Error(err))
			return created, storageError(err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("默认时间段已写入", zap.Int("count", created))
	}
	return created, nil
}
