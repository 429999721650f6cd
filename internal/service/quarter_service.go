package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/internal/clock"
	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
	pkgerrors "hems-scheduler/backend/pkg/errors"
)

// ── 季度模块业务错误 ──

var (
	ErrQuarterNotFound = errors.New("季度不存在")
	ErrQuarterExists   = errors.New("该年度的季度已存在")
	ErrNoTimeSlots     = errors.New("尚未配置任何时间段")
)

// QuarterService 季度目录业务接口
//
// 季度创建时在同一事务内为每个全局时间段生成讲座时段，
// 读取路径不做任何补建。
type QuarterService interface {
	Create(ctx context.Context, req *dto.CreateQuarterRequest) (*dto.QuarterDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.QuarterDetailResponse, error)
	List(ctx context.Context) ([]dto.QuarterResponse, error)
	ListActive(ctx context.Context) ([]dto.QuarterResponse, error)
	ListSlots(ctx context.Context, quarterID string, availableOnly bool) ([]dto.LectureSlotResponse, error)
	SetActive(ctx context.Context, id string, active bool) (*dto.QuarterResponse, error)
	Delete(ctx context.Context, id string) error
	SeedCurrentQuarter(ctx context.Context) (bool, error)
}

type quarterService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewQuarterService 创建 QuarterService 实例
func NewQuarterService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) QuarterService {
	return &quarterService{repo: repo, clock: clk, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *quarterService) Create(ctx context.Context, req *dto.CreateQuarterRequest) (*dto.QuarterDetailResponse, error) {
	if req.QuarterNumber < 1 || req.QuarterNumber > 4 {
		return nil, validationError("quarter_number 必须在 1-4 之间")
	}
	if req.Year < 2000 || req.Year > 2100 {
		return nil, validationError("year 超出范围")
	}
	meetingDate, err := normalizeDate(req.MeetingDate)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	quarter := &model.Quarter{
		Year:          req.Year,
		QuarterNumber: req.QuarterNumber,
		MeetingDate:   meetingDate,
		IsActive:      active,
	}

	var slots []model.LectureSlot
	var timeSlots []model.TimeSlot

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Quarter.GetByYearNumber(ctx, req.Year, req.QuarterNumber); err == nil {
			return ErrQuarterExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageError(err)
		}

		timeSlots, err = tx.TimeSlot.List(ctx)
		if err != nil {
			return storageError(err)
		}
		if len(timeSlots) == 0 {
			return ErrNoTimeSlots
		}

		if err := tx.Quarter.Create(ctx, quarter); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrQuarterExists
			}
			return storageError(err)
		}

		slots = make([]model.LectureSlot, 0, len(timeSlots))
		for _, ts := range timeSlots {
			slots = append(slots, model.LectureSlot{
				QuarterID:   quarter.QuarterID,
				TimeSlotID:  ts.TimeSlotID,
				IsAvailable: true,
			})
		}
		if err := tx.LectureSlot.CreateBatch(ctx, slots); err != nil {
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) {
			s.logger.Error("创建季度失败", zap.Int("year", req.Year), zap.Int("quarter", req.QuarterNumber), zap.Error(err))
		}
		return nil, txError(err)
	}

	s.logger.Info("季度已创建",
		zap.String("quarter_id", quarter.QuarterID),
		zap.String("label", quarter.Label()),
		zap.Int("slots", len(slots)),
	)

	resp := &dto.QuarterDetailResponse{
		QuarterResponse: toQuarterResponse(quarter),
		Slots:           make([]dto.LectureSlotResponse, 0, len(slots)),
	}
	for i := range slots {
		slots[i].TimeSlot = &timeSlots[i]
		resp.Slots = append(resp.Slots, toLectureSlotResponse(&slots[i], nil))
	}
	return resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *quarterService) GetByID(ctx context.Context, id string) (*dto.QuarterDetailResponse, error) {
	quarter, err := s.getQuarter(ctx, id)
	if err != nil {
		return nil, err
	}

	slots, err := s.listSlots(ctx, id, false)
	if err != nil {
		return nil, err
	}

	return &dto.QuarterDetailResponse{
		QuarterResponse: toQuarterResponse(quarter),
		Slots:           slots,
	}, nil
}

func (s *quarterService) List(ctx context.Context) ([]dto.QuarterResponse, error) {
	quarters, err := s.repo.Quarter.List(ctx)
	if err != nil {
		s.logger.Error("列出季度失败", zap.Error(err))
		return nil, storageError(err)
	}
	return toQuarterResponses(quarters), nil
}

// ListActive 启用中的季度，最近的在前
func (s *quarterService) ListActive(ctx context.Context) ([]dto.QuarterResponse, error) {
	quarters, err := s.repo.Quarter.ListActive(ctx)
	if err != nil {
		s.logger.Error("列出启用季度失败", zap.Error(err))
		return nil, storageError(err)
	}
	return toQuarterResponses(quarters), nil
}

// ListSlots 季度内全部讲座时段，按开始时间排序；已占用的附带讲者姓名与题目
func (s *quarterService) ListSlots(ctx context.Context, quarterID string, availableOnly bool) ([]dto.LectureSlotResponse, error) {
	if _, err := s.getQuarter(ctx, quarterID); err != nil {
		return nil, err
	}
	return s.listSlots(ctx, quarterID, availableOnly)
}

func (s *quarterService) listSlots(ctx context.Context, quarterID string, availableOnly bool) ([]dto.LectureSlotResponse, error) {
	slots, err := s.repo.LectureSlot.ListByQuarter(ctx, quarterID, availableOnly)
	if err != nil {
		s.logger.Error("查询讲座时段失败", zap.String("quarter_id", quarterID), zap.Error(err))
		return nil, storageError(err)
	}

	var claimedIDs []string
	for _, slot := range slots {
		if !slot.IsAvailable {
			claimedIDs = append(claimedIDs, slot.LectureSlotID)
		}
	}

	occupants := make(map[string]*model.SpeakerRegistration, len(claimedIDs))
	if len(claimedIDs) > 0 {
		regs, err := s.repo.Registration.ListConfirmedBySlotIDs(ctx, claimedIDs)
		if err != nil {
			s.logger.Error("查询时段占用信息失败", zap.String("quarter_id", quarterID), zap.Error(err))
			return nil, storageError(err)
		}
		for i := range regs {
			occupants[regs[i].LectureSlotID] = &regs[i]
		}
	}

	result := make([]dto.LectureSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toLectureSlotResponse(&slots[i], occupants[slots[i].LectureSlotID]))
	}
	return result, nil
}

// ────────────────────── Update / Delete ──────────────────────

// SetActive 季度创建后唯一允许修改的字段
func (s *quarterService) SetActive(ctx context.Context, id string, active bool) (*dto.QuarterResponse, error) {
	if err := s.repo.Quarter.UpdateActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuarterNotFound
		}
		s.logger.Error("更新季度状态失败", zap.String("id", id), zap.Error(err))
		return nil, storageError(err)
	}

	quarter, err := s.getQuarter(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toQuarterResponse(quarter)
	return &resp, nil
}

// Delete 级联删除讲座时段及其报名
func (s *quarterService) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Quarter.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuarterNotFound
			}
			return storageError(err)
		}
		if err := tx.Registration.DeleteByQuarter(ctx, id); err != nil {
			return storageError(err)
		}
		if err := tx.LectureSlot.DeleteByQuarter(ctx, id); err != nil {
			return storageError(err)
		}
		if err := tx.Quarter.Delete(ctx, id); err != nil {
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) {
			s.logger.Error("删除季度失败", zap.String("id", id), zap.Error(err))
		}
		return txError(err)
	}

	s.logger.Info("季度已删除", zap.String("quarter_id", id))
	return nil
}

// ────────────────────── Seed ──────────────────────

// SeedCurrentQuarter 库中没有任何季度时，按当前时间创建所在季度
// 例会日期默认取季度首月 15 日
func (s *quarterService) SeedCurrentQuarter(ctx context.Context) (bool, error) {
	total, _, err := s.repo.Quarter.Count(ctx)
	if err != nil {
		return false, storageError(err)
	}
	if total > 0 {
		return false, nil
	}

	now := s.clock.Now()
	number := (int(now.Month())-1)/3 + 1
	firstMonth := time.Month((number-1)*3 + 1)
	meeting := time.Date(now.Year(), firstMonth, 15, 0, 0, 0, 0, time.UTC)

	_, err = s.Create(ctx, &dto.CreateQuarterRequest{
		Year:          now.Year(),
		QuarterNumber: number,
		MeetingDate:   meeting.Format(dateLayout),
	})
	if err != nil {
		return false, fmt.Errorf("创建初始季度失败: %w", err)
	}
	return true, nil
}

// ── helpers ──

func (s *quarterService) getQuarter(ctx context.Context, id string) (*model.Quarter, error) {
	quarter, err := s.repo.Quarter.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuarterNotFound
		}
		s.logger.Error("查询季度失败", zap.String("id", id), zap.Error(err))
		return nil, storageError(err)
	}
	return quarter, nil
}

func toQuarterResponses(quarters []model.Quarter) []dto.QuarterResponse {
	result := make([]dto.QuarterResponse, 0, len(quarters))
	for i := range quarters {
		result = append(result, toQuarterResponse(&quarters[i]))
	}
	return result
}
