package service

import (
	"context"

	"go.uber.org/zap"

	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/repository"
)

const recentRegistrationLimit = 10

// DashboardService 管理后台概览
type DashboardService interface {
	Get(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger}
}

func (s *dashboardService) Get(ctx context.Context) (*dto.DashboardResponse, error) {
	total, active, err := s.repo.Quarter.Count(ctx)
	if err != nil {
		return nil, s.fail("统计季度失败", err)
	}

	confirmed, err := s.repo.Registration.CountConfirmed(ctx)
	if err != nil {
		return nil, s.fail("统计报名失败", err)
	}

	recent, _, err := s.repo.Registration.List(ctx, repository.RegistrationFilter{Limit: recentRegistrationLimit})
	if err != nil {
		return nil, s.fail("查询最近报名失败", err)
	}

	quarters, err := s.repo.Quarter.List(ctx)
	if err != nil {
		return nil, s.fail("列出季度失败", err)
	}

	confirmedByQuarter, err := s.repo.Registration.CountConfirmedByQuarter(ctx)
	if err != nil {
		return nil, s.fail("按季度统计报名失败", err)
	}

	slotStats, err := s.repo.LectureSlot.StatsByQuarter(ctx)
	if err != nil {
		return nil, s.fail("按季度统计时段失败", err)
	}

	resp := &dto.DashboardResponse{
		TotalQuarters:       total,
		ActiveQuarters:      active,
		TotalRegistrations:  confirmed,
		RecentRegistrations: make([]dto.RegistrationResponse, 0, len(recent)),
		QuarterStats:        make([]dto.QuarterStat, 0, len(quarters)),
	}
	for i := range recent {
		resp.RecentRegistrations = append(resp.RecentRegistrations, toRegistrationResponse(&recent[i]))
	}
	for i := range quarters {
		q := &quarters[i]
		stat := slotStats[q.QuarterID]
		resp.QuarterStats = append(resp.QuarterStats, dto.QuarterStat{
			Quarter:        toQuarterResponse(q),
			ConfirmedCount: confirmedByQuarter[q.QuarterID],
			TotalSlots:     stat.Total,
			AvailableSlots: stat.Available,
		})
	}
	return resp, nil
}

func (s *dashboardService) fail(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return storageError(err)
}
