package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"hems-scheduler/backend/internal/clock"
	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/internal/testutil"
)

func boolPtr(b bool) *bool { return &b }

func newQuarterService(t *testing.T, seedTimeSlots bool, now time.Time) (QuarterService, *repository.Repository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	if seedTimeSlots {
		testutil.SeedTimeSlots(t, db)
	}
	repo := repository.NewRepository(db)
	return NewQuarterService(repo, clock.NewFixed(now), zap.NewNop()), repo
}

func TestQuarterCreate_EagerSlots(t *testing.T) {
	svc, repo := newQuarterService(t, true, testNow)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateQuarterRequest{
		Year:          2025,
		QuarterNumber: 2,
		MeetingDate:   "2025-04-16T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if resp.MeetingDate != "2025-04-16" {
		t.Errorf("例会日期应规范为 YYYY-MM-DD，实际 %s", resp.MeetingDate)
	}
	if !resp.IsActive {
		t.Error("未指定 is_active 时默认启用")
	}
	if resp.Label != "2025 Q2" {
		t.Errorf("期望 2025 Q2，实际 %s", resp.Label)
	}
	if len(resp.Slots) != 3 {
		t.Fatalf("期望立即生成 3 个讲座时段，实际 %d", len(resp.Slots))
	}
	if resp.Slots[0].StartTime != "09:00" || resp.Slots[2].StartTime != "11:00" {
		t.Errorf("讲座时段应按开始时间排序: %+v", resp.Slots)
	}

	stored, err := repo.LectureSlot.ListByQuarter(ctx, resp.ID, false)
	if err != nil || len(stored) != 3 {
		t.Fatalf("期望库中 3 个讲座时段，实际 %d err=%v", len(stored), err)
	}
	for _, s := range stored {
		if !s.IsAvailable {
			t.Error("新建讲座时段应可用")
		}
	}
}

func TestQuarterCreate_Errors(t *testing.T) {
	svc, _ := newQuarterService(t, true, testNow)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 1, MeetingDate: "2025-01-15"}); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	tests := []struct {
		name string
		req  dto.CreateQuarterRequest
		want error
	}{
		{"Duplicate", dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 1, MeetingDate: "2025-02-01"}, ErrQuarterExists},
		{"QuarterZero", dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 0, MeetingDate: "2025-01-15"}, ErrValidation},
		{"QuarterFive", dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 5, MeetingDate: "2025-01-15"}, ErrValidation},
		{"BadDate", dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 3, MeetingDate: "15/07/2025"}, ErrValidation},
		{"EmptyDate", dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 3}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tt.req)
			assertErr(t, err, tt.want)
		})
	}
}

func TestQuarterCreate_NoTimeSlots(t *testing.T) {
	svc, repo := newQuarterService(t, false, testNow)
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateQuarterRequest{Year: 2025, QuarterNumber: 1, MeetingDate: "2025-01-15"})
	assertErr(t, err, ErrNoTimeSlots)

	total, _, _ := repo.Quarter.Count(ctx)
	if total != 0 {
		t.Error("失败时不应留下季度记录")
	}
}

func TestQuarterListActive(t *testing.T) {
	svc, _ := newQuarterService(t, true, testNow)
	ctx := context.Background()

	reqs := []dto.CreateQuarterRequest{
		{Year: 2024, QuarterNumber: 4, MeetingDate: "2024-10-15"},
		{Year: 2025, QuarterNumber: 1, MeetingDate: "2025-01-15"},
		{Year: 2025, QuarterNumber: 2, MeetingDate: "2025-04-15", IsActive: boolPtr(false)},
	}
	for i := range reqs {
		if _, err := svc.Create(ctx, &reqs[i]); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive 失败: %v", err)
	}
	if len(active) != 2 || active[0].Label != "2025 Q1" || active[1].Label != "2024 Q4" {
		t.Errorf("期望 [2025 Q1, 2024 Q4]，实际 %+v", active)
	}

	all, _ := svc.List(ctx)
	if len(all) != 3 || all[0].Label != "2025 Q2" {
		t.Errorf("全部季度应按年份、季度倒序，实际 %+v", all)
	}
}

func TestQuarterListSlots(t *testing.T) {
	env, quarter, slots := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.reg.Register(ctx, slots[1].LectureSlotID, speaker("Dr. A", "a@x.com")); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}

	all, err := env.quarter.ListSlots(ctx, quarter.QuarterID, false)
	if err != nil {
		t.Fatalf("ListSlots 失败: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("期望 3 个时段，实际 %d", len(all))
	}
	if all[1].IsAvailable || all[1].SpeakerName == nil || *all[1].SpeakerName != "Dr. A" {
		t.Errorf("10:00 时段应展示占用者，实际 %+v", all[1])
	}

	open, err := env.quarter.ListSlots(ctx, quarter.QuarterID, true)
	if err != nil {
		t.Fatalf("ListSlots 失败: %v", err)
	}
	if len(open) != 2 || open[0].StartTime != "09:00" || open[1].StartTime != "11:00" {
		t.Errorf("仅可用时段期望 [09:00, 11:00]，实际 %+v", open)
	}

	_, err = env.quarter.ListSlots(ctx, "missing", false)
	assertErr(t, err, ErrQuarterNotFound)
}

func TestQuarterGetAndSetActive(t *testing.T) {
	env, quarter, _ := newTestEnv(t)
	ctx := context.Background()

	detail, err := env.quarter.GetByID(ctx, quarter.QuarterID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if len(detail.Slots) != 3 {
		t.Errorf("详情应包含 3 个时段，实际 %d", len(detail.Slots))
	}

	resp, err := env.quarter.SetActive(ctx, quarter.QuarterID, false)
	if err != nil {
		t.Fatalf("SetActive 失败: %v", err)
	}
	if resp.IsActive {
		t.Error("期望已停用")
	}
	active, _ := env.quarter.ListActive(ctx)
	if len(active) != 0 {
		t.Errorf("停用后不应出现在启用列表，实际 %d", len(active))
	}

	_, err = env.quarter.SetActive(ctx, "missing", true)
	assertErr(t, err, ErrQuarterNotFound)
	_, err = env.quarter.GetByID(ctx, "missing")
	assertErr(t, err, ErrQuarterNotFound)
}

func TestQuarterDelete_Cascades(t *testing.T) {
	env, quarter, slots := newTestEnv(t)
	ctx := context.Background()

	reg, _ := env.reg.Register(ctx, slots[0].LectureSlotID, speaker("Dr. A", "a@x.com"))

	if err := env.quarter.Delete(ctx, quarter.QuarterID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}

	var slotCount, regCount int64
	env.db.Model(&model.LectureSlot{}).Count(&slotCount)
	env.db.Model(&model.SpeakerRegistration{}).Count(&regCount)
	if slotCount != 0 || regCount != 0 {
		t.Errorf("期望级联删除，剩余时段 %d 报名 %d", slotCount, regCount)
	}

	_, err := env.reg.GetByID(ctx, reg.ID)
	assertErr(t, err, ErrRegistrationNotFound)
	assertErr(t, env.quarter.Delete(ctx, quarter.QuarterID), ErrQuarterNotFound)
}

func TestSeedCurrentQuarter(t *testing.T) {
	svc, _ := newQuarterService(t, true, time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	created, err := svc.SeedCurrentQuarter(ctx)
	if err != nil || !created {
		t.Fatalf("期望创建当前季度，created=%v err=%v", created, err)
	}

	all, _ := svc.List(ctx)
	if len(all) != 1 || all[0].Label != "2025 Q2" || all[0].MeetingDate != "2025-04-15" {
		t.Errorf("期望 2025 Q2 / 2025-04-15，实际 %+v", all)
	}

	created, err = svc.SeedCurrentQuarter(ctx)
	if err != nil || created {
		t.Errorf("已有季度时不应重复创建，created=%v err=%v", created, err)
	}
}
