package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/internal/clock"
	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/notify"
	"hems-scheduler/backend/internal/repository"
	pkgerrors "hems-scheduler/backend/pkg/errors"
)

// ── 报名模块业务错误 ──

var (
	ErrSlotNotFound          = errors.New("讲座时段不存在")
	ErrSlotUnavailable       = errors.New("该时段已被预约")
	ErrDuplicateRegistration = errors.New("该邮箱在本季度已有有效报名")
	ErrRegistrationNotFound  = errors.New("报名记录不存在")
)

// 字段长度上限，与表结构一致
const (
	maxNameLen  = 200
	maxEmailLen = 200
	maxPhoneLen = 50
	maxTopicLen = 300
)

// SpeakerInfo 讲者提交的报名资料
type SpeakerInfo struct {
	Name             string
	Email            string
	Phone            string
	Specialty        string
	TopicTitle       string
	TopicDescription string
}

// RegistrationService 报名台账业务接口
//
// 讲座时段两种状态：Open（is_available=true）与 Claimed（恰有一条 confirmed 报名）。
//   - Register：Open → Claimed，占用判断与报名写入在同一事务内完成
//   - Cancel / UpdateStatus(cancelled)：Claimed → Open，幂等
//   - UpdateStatus(confirmed)：重新走占用流程
//
// 同一邮箱在同一季度最多持有一条 confirmed 报名，所有能产生 confirmed 的路径统一校验。
type RegistrationService interface {
	Register(ctx context.Context, slotID string, info SpeakerInfo) (*dto.RegistrationResponse, error)
	Cancel(ctx context.Context, id string) (*dto.RegistrationResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (*dto.RegistrationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRegistrationRequest) (*dto.RegistrationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RegistrationResponse, error)
	List(ctx context.Context, req *dto.ListRegistrationsRequest) ([]dto.RegistrationResponse, int64, error)
	Delete(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, slotID string) (*dto.CheckAvailabilityResponse, error)
}

type registrationService struct {
	repo          *repository.Repository
	notifier      notify.Notifier
	clock         clock.Clock
	notifyTimeout time.Duration
	logger        *zap.Logger
}

// NewRegistrationService 创建 RegistrationService 实例
// notifier 可为 nil；notifyTimeout 限制单次事件投递的总时长
func NewRegistrationService(
	repo *repository.Repository,
	notifier notify.Notifier,
	clk clock.Clock,
	notifyTimeout time.Duration,
	logger *zap.Logger,
) RegistrationService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &registrationService{
		repo:          repo,
		notifier:      notifier,
		clock:         clk,
		notifyTimeout: notifyTimeout,
		logger:        logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Register — Open → Claimed
// ═══════════════════════════════════════════════════════════
//
// 事务内步骤：
//  1. 读取讲座时段（含季度、时间段），不存在 → ErrSlotNotFound
//  2. 锁定季度行（Postgres），串行化同季度的邮箱唯一性判断
//  3. 时段已占用 → ErrSlotUnavailable
//  4. 同季度同邮箱已有 confirmed → ErrDuplicateRegistration
//  5. 条件更新 is_available true → false，0 行 → ErrSlotUnavailable
//  6. 写入报名；部分唯一索引冲突 → ErrSlotUnavailable
//
// 任一步失败整体回滚。提交后投递事件，投递失败只记日志。

func (s *registrationService) Register(ctx context.Context, slotID string, info SpeakerInfo) (*dto.RegistrationResponse, error) {
	info, err := normalizeSpeakerInfo(info)
	if err != nil {
		return nil, err
	}
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return nil, validationError("lecture_slot_id 不能为空")
	}

	reg := &model.SpeakerRegistration{
		LectureSlotID:    slotID,
		SpeakerName:      info.Name,
		SpeakerEmail:     info.Email,
		SpeakerPhone:     optional(info.Phone),
		Specialty:        optional(info.Specialty),
		TopicTitle:       info.TopicTitle,
		TopicDescription: optional(info.TopicDescription),
		Status:           model.RegistrationStatusConfirmed,
		RegisteredAt:     s.clock.Now(),
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		slot, err := tx.LectureSlot.GetByID(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return storageError(err)
		}

		if err := s.claim(ctx, tx, slot, reg.SpeakerEmail, ""); err != nil {
			return err
		}

		if err := tx.Registration.Create(ctx, reg); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrSlotUnavailable
			}
			return storageError(err)
		}

		slot.IsAvailable = false
		reg.LectureSlot = slot
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) {
			s.logger.Error("讲者报名失败", zap.String("slot_id", slotID), zap.Error(err))
		}
		return nil, txError(err)
	}

	s.logger.Info("讲座时段已被预约",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("slot_id", slotID),
	)

	s.publish(ctx, reg)

	resp := toRegistrationResponse(reg)
	return &resp, nil
}

// claim 在事务内将时段置为 Claimed
// excludeID 为重新确认的报名自身，邮箱唯一性校验时排除
func (s *registrationService) claim(ctx context.Context, tx *repository.Repository, slot *model.LectureSlot, email, excludeID string) error {
	if err := tx.Quarter.LockForUpdate(ctx, slot.QuarterID); err != nil {
		return storageError(err)
	}

	if !slot.IsAvailable {
		return ErrSlotUnavailable
	}

	if err := s.checkEmailFree(ctx, tx, slot.QuarterID, email, excludeID); err != nil {
		return err
	}

	if err := tx.LectureSlot.MarkClaimed(ctx, slot.LectureSlotID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionNotMet) {
			return ErrSlotUnavailable
		}
		return storageError(err)
	}
	return nil
}

func (s *registrationService) checkEmailFree(ctx context.Context, tx *repository.Repository, quarterID, email, excludeID string) error {
	exists, err := tx.Registration.ExistsConfirmedInQuarter(ctx, quarterID, email, excludeID)
	if err != nil {
		return storageError(err)
	}
	if exists {
		return ErrDuplicateRegistration
	}
	return nil
}

// publish 报名成功事件投递，使用独立超时，不受请求取消影响
func (s *registrationService) publish(ctx context.Context, reg *model.SpeakerRegistration) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, buildEvent(reg)); err != nil {
		s.logger.Warn("报名事件投递失败",
			zap.String("registration_id", reg.RegistrationID),
			zap.Error(err),
		)
	}
}

func buildEvent(reg *model.SpeakerRegistration) notify.Event {
	event := notify.Event{
		Type:           notify.EventRegistrationConfirmed,
		RegistrationID: reg.RegistrationID,
		SpeakerName:    reg.SpeakerName,
		SpeakerEmail:   reg.SpeakerEmail,
		TopicTitle:     reg.TopicTitle,
		RegisteredAt:   reg.RegisteredAt,
	}
	if reg.SpeakerPhone != nil {
		event.SpeakerPhone = *reg.SpeakerPhone
	}
	if reg.Specialty != nil {
		event.Specialty = *reg.Specialty
	}
	if slot := reg.LectureSlot; slot != nil {
		event.QuarterID = slot.QuarterID
		if slot.Quarter != nil {
			event.QuarterLabel = slot.Quarter.Label()
			event.MeetingDate = slot.Quarter.MeetingDate
		}
		if slot.TimeSlot != nil {
			event.SlotStart = slot.TimeSlot.StartTime
			event.SlotEnd = slot.TimeSlot.EndTime
			event.SlotName = slot.TimeSlot.DisplayName
		}
	}
	return event
}

// ═══════════════════════════════════════════════════════════
// Cancel / UpdateStatus / Update
// ═══════════════════════════════════════════════════════════

// Cancel Claimed → Open；已取消的报名直接返回成功
func (s *registrationService) Cancel(ctx context.Context, id string) (*dto.RegistrationResponse, error) {
	return s.UpdateStatus(ctx, id, model.RegistrationStatusCancelled)
}

func (s *registrationService) UpdateStatus(ctx context.Context, id, status string) (*dto.RegistrationResponse, error) {
	return s.Update(ctx, id, &dto.UpdateRegistrationRequest{Status: &status})
}

// Update 管理员修改报名：状态变更与时段占用同步，资料修改后仍满足邮箱唯一性
func (s *registrationService) Update(ctx context.Context, id string, req *dto.UpdateRegistrationRequest) (*dto.RegistrationResponse, error) {
	if req.Status != nil {
		switch *req.Status {
		case model.RegistrationStatusConfirmed, model.RegistrationStatusCancelled:
		default:
			return nil, validationError("status 只能为 confirmed 或 cancelled")
		}
	}

	var reg *model.SpeakerRegistration
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		reg, err = tx.Registration.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return storageError(err)
		}

		oldEmail := reg.SpeakerEmail
		detailsChanged, err := applyDetails(reg, req)
		if err != nil {
			return err
		}

		target := reg.Status
		if req.Status != nil {
			target = *req.Status
		}

		switch {
		case reg.Status == model.RegistrationStatusConfirmed && target == model.RegistrationStatusCancelled:
			if err := s.release(ctx, tx, reg); err != nil {
				return err
			}

		case reg.Status == model.RegistrationStatusCancelled && target == model.RegistrationStatusConfirmed:
			if err := s.reconfirm(ctx, tx, reg); err != nil {
				return err
			}

		case reg.Status == model.RegistrationStatusConfirmed && reg.SpeakerEmail != oldEmail:
			if reg.LectureSlot == nil {
				return ErrSlotNotFound
			}
			if err := tx.Quarter.LockForUpdate(ctx, reg.LectureSlot.QuarterID); err != nil {
				return storageError(err)
			}
			if err := s.checkEmailFree(ctx, tx, reg.LectureSlot.QuarterID, reg.SpeakerEmail, reg.RegistrationID); err != nil {
				return err
			}
		}

		if detailsChanged {
			if err := tx.Registration.UpdateDetails(ctx, reg); err != nil {
				return storageError(err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) {
			s.logger.Error("更新报名失败", zap.String("id", id), zap.Error(err))
		}
		return nil, txError(err)
	}

	resp := toRegistrationResponse(reg)
	return &resp, nil
}

// release confirmed → cancelled 并释放时段
// 并发取消导致条件更新落空时视为已取消
func (s *registrationService) release(ctx context.Context, tx *repository.Repository, reg *model.SpeakerRegistration) error {
	err := tx.Registration.UpdateStatus(ctx, reg.RegistrationID, model.RegistrationStatusConfirmed, model.RegistrationStatusCancelled)
	if errors.Is(err, pkgerrors.ErrConditionNotMet) {
		reg.Status = model.RegistrationStatusCancelled
		return nil
	}
	if err != nil {
		return storageError(err)
	}

	if err := s.openSlot(ctx, tx, reg.LectureSlotID); err != nil {
		return err
	}

	reg.Status = model.RegistrationStatusCancelled
	if reg.LectureSlot != nil {
		reg.LectureSlot.IsAvailable = true
	}
	s.logger.Info("报名已取消，时段已释放",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("slot_id", reg.LectureSlotID),
	)
	return nil
}

// reconfirm cancelled → confirmed，与 Register 相同的占用校验
func (s *registrationService) reconfirm(ctx context.Context, tx *repository.Repository, reg *model.SpeakerRegistration) error {
	if reg.LectureSlot == nil {
		return ErrSlotNotFound
	}

	if err := s.claim(ctx, tx, reg.LectureSlot, reg.SpeakerEmail, reg.RegistrationID); err != nil {
		return err
	}

	err := tx.Registration.UpdateStatus(ctx, reg.RegistrationID, model.RegistrationStatusCancelled, model.RegistrationStatusConfirmed)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConditionNotMet) || pkgerrors.IsUniqueViolation(err) {
			return ErrSlotUnavailable
		}
		return storageError(err)
	}

	reg.Status = model.RegistrationStatusConfirmed
	reg.LectureSlot.IsAvailable = false
	return nil
}

// openSlot 时段已处于 Open 时不视为错误，两种情况下都满足占用一致性
func (s *registrationService) openSlot(ctx context.Context, tx *repository.Repository, slotID string) error {
	err := tx.LectureSlot.MarkOpen(ctx, slotID)
	if errors.Is(err, pkgerrors.ErrConditionNotMet) {
		s.logger.Warn("释放时段时发现时段已可用", zap.String("slot_id", slotID))
		return nil
	}
	if err != nil {
		return storageError(err)
	}
	return nil
}

// applyDetails 将请求中的资料字段写入 reg，返回是否有变化
func applyDetails(reg *model.SpeakerRegistration, req *dto.UpdateRegistrationRequest) (bool, error) {
	changed := false

	if req.SpeakerName != nil {
		name := strings.TrimSpace(*req.SpeakerName)
		if name == "" || len(name) > maxNameLen {
			return false, validationError("speaker_name 不能为空且不超过 %d 字符", maxNameLen)
		}
		reg.SpeakerName = name
		changed = true
	}
	if req.SpeakerEmail != nil {
		email := normalizeEmail(*req.SpeakerEmail)
		if len(email) > maxEmailLen || !validEmail(email) {
			return false, validationError("speaker_email 格式无效")
		}
		reg.SpeakerEmail = email
		changed = true
	}
	if req.SpeakerPhone != nil {
		if len(strings.TrimSpace(*req.SpeakerPhone)) > maxPhoneLen {
			return false, validationError("speaker_phone 不超过 %d 字符", maxPhoneLen)
		}
		reg.SpeakerPhone = optional(*req.SpeakerPhone)
		changed = true
	}
	if req.Specialty != nil {
		reg.Specialty = optional(*req.Specialty)
		changed = true
	}
	if req.TopicTitle != nil {
		title := strings.TrimSpace(*req.TopicTitle)
		if title == "" || len(title) > maxTopicLen {
			return false, validationError("topic_title 不能为空且不超过 %d 字符", maxTopicLen)
		}
		reg.TopicTitle = title
		changed = true
	}
	if req.TopicDescription != nil {
		reg.TopicDescription = optional(*req.TopicDescription)
		changed = true
	}

	return changed, nil
}

// ════════════════════════ Query / Delete ════════════════════════

func (s *registrationService) GetByID(ctx context.Context, id string) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询报名失败", zap.String("id", id), zap.Error(err))
		return nil, storageError(err)
	}

	resp := toRegistrationResponse(reg)
	return &resp, nil
}

// List 按报名时间倒序，可按季度、状态过滤
func (s *registrationService) List(ctx context.Context, req *dto.ListRegistrationsRequest) ([]dto.RegistrationResponse, int64, error) {
	page, pageSize := req.GetPage(), req.GetPageSize()

	regs, total, err := s.repo.Registration.List(ctx, repository.RegistrationFilter{
		QuarterID: req.QuarterID,
		Status:    req.Status,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		s.logger.Error("列出报名失败", zap.Error(err))
		return nil, 0, storageError(err)
	}

	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, toRegistrationResponse(&regs[i]))
	}
	return result, total, nil
}

// Delete 删除报名；仅当被删除的是 confirmed 报名时释放时段
func (s *registrationService) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		reg, err := tx.Registration.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return storageError(err)
		}

		if err := tx.Registration.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return storageError(err)
		}

		if reg.IsConfirmed() {
			return s.openSlot(ctx, tx, reg.LectureSlotID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStorage) {
			s.logger.Error("删除报名失败", zap.String("id", id), zap.Error(err))
		}
		return txError(err)
	}

	s.logger.Info("报名已删除", zap.String("registration_id", id))
	return nil
}

// CheckAvailability 读取时段当前状态；结果仅供展示，Register 会重新校验
func (s *registrationService) CheckAvailability(ctx context.Context, slotID string) (*dto.CheckAvailabilityResponse, error) {
	slot, err := s.repo.LectureSlot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("查询讲座时段失败", zap.String("slot_id", slotID), zap.Error(err))
		return nil, storageError(err)
	}

	return &dto.CheckAvailabilityResponse{
		IsAvailable: slot.IsAvailable,
		LectureSlot: toLectureSlotResponse(slot, nil),
	}, nil
}

// normalizeSpeakerInfo 去除首尾空白、邮箱转小写，并校验必填项
func normalizeSpeakerInfo(info SpeakerInfo) (SpeakerInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Email = normalizeEmail(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Specialty = strings.TrimSpace(info.Specialty)
	info.TopicTitle = strings.TrimSpace(info.TopicTitle)
	info.TopicDescription = strings.TrimSpace(info.TopicDescription)

	switch {
	case info.Name == "":
		return info, validationError("speaker_name 不能为空")
	case len(info.Name) > maxNameLen:
		return info, validationError("speaker_name 不超过 %d 字符", maxNameLen)
	case info.Email == "":
		return info, validationError("speaker_email 不能为空")
	case len(info.Email) > maxEmailLen || !validEmail(info.Email):
		return info, validationError("speaker_email 格式无效")
	case len(info.Phone) > maxPhoneLen:
		return info, validationError("speaker_phone 不超过 %d 字符", maxPhoneLen)
	case info.TopicTitle == "":
		return info, validationError("topic_title 不能为空")
	case len(info.TopicTitle) > maxTopicLen:
		return info, validationError("topic_title 不超过 %d 字符", maxTopicLen)
	}
	return info, nil
}
