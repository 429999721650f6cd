package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/internal/testutil"
	pkgerrors "hems-scheduler/backend/pkg/errors"
)

func setup(t *testing.T) (*gorm.DB, *repository.Repository, *model.Quarter, []model.LectureSlot) {
	t.Helper()
	db := testutil.NewTestDB(t)
	testutil.SeedTimeSlots(t, db)
	quarter, slots := testutil.CreateQuarter(t, db, 2025, 1, "2025-01-15")
	return db, repository.NewRepository(db), quarter, slots
}

func newRegistration(slotID, email string) *model.SpeakerRegistration {
	return &model.SpeakerRegistration{
		LectureSlotID: slotID,
		SpeakerName:   "Dr. A",
		SpeakerEmail:  email,
		TopicTitle:    "Trauma",
		Status:        model.RegistrationStatusConfirmed,
		RegisteredAt:  time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

// ── LectureSlot ──

func TestLectureSlotRepo_MarkClaimed(t *testing.T) {
	_, repo, _, slots := setup(t)
	ctx := context.Background()

	if err := repo.LectureSlot.MarkClaimed(ctx, slots[0].LectureSlotID); err != nil {
		t.Fatalf("首次占用失败: %v", err)
	}

	err := repo.LectureSlot.MarkClaimed(ctx, slots[0].LectureSlotID)
	if !errors.Is(err, pkgerrors.ErrConditionNotMet) {
		t.Errorf("期望 ErrConditionNotMet，实际: %v", err)
	}

	if err := repo.LectureSlot.MarkOpen(ctx, slots[0].LectureSlotID); err != nil {
		t.Fatalf("释放失败: %v", err)
	}
	if err := repo.LectureSlot.MarkOpen(ctx, slots[0].LectureSlotID); !errors.Is(err, pkgerrors.ErrConditionNotMet) {
		t.Errorf("重复释放期望 ErrConditionNotMet，实际: %v", err)
	}
}

func TestLectureSlotRepo_MarkClaimed_UnknownSlot(t *testing.T) {
	_, repo, _, _ := setup(t)

	err := repo.LectureSlot.MarkClaimed(context.Background(), "missing")
	if !errors.Is(err, pkgerrors.ErrConditionNotMet) {
		t.Errorf("期望 ErrConditionNotMet，实际: %v", err)
	}
}

func TestLectureSlotRepo_ListByQuarter(t *testing.T) {
	_, repo, quarter, slots := setup(t)
	ctx := context.Background()

	list, err := repo.LectureSlot.ListByQuarter(ctx, quarter.QuarterID, false)
	if err != nil {
		t.Fatalf("ListByQuarter 失败: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望 3 个时段，实际 %d", len(list))
	}
	want := []string{"09:00", "10:00", "11:00"}
	for i, slot := range list {
		if slot.TimeSlot == nil {
			t.Fatalf("第 %d 个时段未预加载 TimeSlot", i)
		}
		if slot.TimeSlot.StartTime != want[i] {
			t.Errorf("第 %d 个时段期望 %s，实际 %s", i, want[i], slot.TimeSlot.StartTime)
		}
	}

	if err := repo.LectureSlot.MarkClaimed(ctx, slots[1].LectureSlotID); err != nil {
		t.Fatalf("占用失败: %v", err)
	}
	available, err := repo.LectureSlot.ListByQuarter(ctx, quarter.QuarterID, true)
	if err != nil {
		t.Fatalf("ListByQuarter(available) 失败: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("期望 2 个可用时段，实际 %d", len(available))
	}
	for _, slot := range available {
		if slot.LectureSlotID == slots[1].LectureSlotID {
			t.Error("已占用时段不应出现在可用列表中")
		}
	}
}

func TestLectureSlotRepo_UniquePerQuarterAndTimeSlot(t *testing.T) {
	_, repo, quarter, slots := setup(t)

	dup := []model.LectureSlot{{
		QuarterID:   quarter.QuarterID,
		TimeSlotID:  slots[0].TimeSlotID,
		IsAvailable: true,
	}}
	err := repo.LectureSlot.CreateBatch(context.Background(), dup)
	if !pkgerrors.IsUniqueViolation(err) {
		t.Errorf("期望唯一约束冲突，实际: %v", err)
	}
}

func TestLectureSlotRepo_StatsByQuarter(t *testing.T) {
	_, repo, quarter, slots := setup(t)
	ctx := context.Background()

	_ = repo.LectureSlot.MarkClaimed(ctx, slots[2].LectureSlotID)

	stats, err := repo.LectureSlot.StatsByQuarter(ctx)
	if err != nil {
		t.Fatalf("StatsByQuarter 失败: %v", err)
	}
	got := stats[quarter.QuarterID]
	if got.Total != 3 || got.Available != 2 {
		t.Errorf("期望 total=3 available=2，实际 %+v", got)
	}
}

// ── Registration ──

func TestRegistrationRepo_ConfirmedUniquePerSlot(t *testing.T) {
	_, repo, _, slots := setup(t)
	ctx := context.Background()

	if err := repo.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "a@x.com")); err != nil {
		t.Fatalf("创建报名失败: %v", err)
	}

	err := repo.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "b@x.com"))
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("同一时段第二条 confirmed 报名期望唯一约束冲突，实际: %v", err)
	}

	cancelled := newRegistration(slots[0].LectureSlotID, "c@x.com")
	cancelled.Status = model.RegistrationStatusCancelled
	if err := repo.Registration.Create(ctx, cancelled); err != nil {
		t.Errorf("cancelled 报名不受唯一约束限制，实际: %v", err)
	}
}

func TestRegistrationRepo_ExistsConfirmedInQuarter(t *testing.T) {
	db, repo, quarter, slots := setup(t)
	ctx := context.Background()

	reg := newRegistration(slots[0].LectureSlotID, "a@x.com")
	if err := repo.Registration.Create(ctx, reg); err != nil {
		t.Fatalf("创建报名失败: %v", err)
	}

	exists, err := repo.Registration.ExistsConfirmedInQuarter(ctx, quarter.QuarterID, "a@x.com", "")
	if err != nil || !exists {
		t.Errorf("期望存在，实际 exists=%v err=%v", exists, err)
	}

	exists, _ = repo.Registration.ExistsConfirmedInQuarter(ctx, quarter.QuarterID, "a@x.com", reg.RegistrationID)
	if exists {
		t.Error("排除自身后不应存在")
	}

	other, _ := testutil.CreateQuarter(t, db, 2025, 2, "2025-04-15")
	exists, _ = repo.Registration.ExistsConfirmedInQuarter(ctx, other.QuarterID, "a@x.com", "")
	if exists {
		t.Error("其他季度不应受影响")
	}

	if err := repo.Registration.UpdateStatus(ctx, reg.RegistrationID, model.RegistrationStatusConfirmed, model.RegistrationStatusCancelled); err != nil {
		t.Fatalf("UpdateStatus 失败: %v", err)
	}
	exists, _ = repo.Registration.ExistsConfirmedInQuarter(ctx, quarter.QuarterID, "a@x.com", "")
	if exists {
		t.Error("取消后不应再计入")
	}
}

func TestRegistrationRepo_UpdateStatus_ConditionNotMet(t *testing.T) {
	_, repo, _, slots := setup(t)
	ctx := context.Background()

	reg := newRegistration(slots[0].LectureSlotID, "a@x.com")
	_ = repo.Registration.Create(ctx, reg)

	err := repo.Registration.UpdateStatus(ctx, reg.RegistrationID, model.RegistrationStatusCancelled, model.RegistrationStatusConfirmed)
	if !errors.Is(err, pkgerrors.ErrConditionNotMet) {
		t.Errorf("期望 ErrConditionNotMet，实际: %v", err)
	}
}

func TestRegistrationRepo_ListFilters(t *testing.T) {
	db, repo, quarter, slots := setup(t)
	ctx := context.Background()
	other, otherSlots := testutil.CreateQuarter(t, db, 2025, 2, "2025-04-15")

	first := newRegistration(slots[0].LectureSlotID, "a@x.com")
	second := newRegistration(slots[1].LectureSlotID, "b@x.com")
	second.RegisteredAt = first.RegisteredAt.Add(time.Hour)
	third := newRegistration(otherSlots[0].LectureSlotID, "c@x.com")
	third.Status = model.RegistrationStatusCancelled
	for _, reg := range []*model.SpeakerRegistration{first, second, third} {
		if err := repo.Registration.Create(ctx, reg); err != nil {
			t.Fatalf("创建报名失败: %v", err)
		}
	}

	all, total, err := repo.Registration.List(ctx, repository.RegistrationFilter{})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("期望 3 条，实际 total=%d len=%d", total, len(all))
	}

	byQuarter, total, _ := repo.Registration.List(ctx, repository.RegistrationFilter{QuarterID: quarter.QuarterID})
	if total != 2 {
		t.Fatalf("季度过滤期望 2 条，实际 %d", total)
	}
	if byQuarter[0].RegistrationID != second.RegistrationID {
		t.Error("期望按报名时间倒序")
	}
	if byQuarter[0].LectureSlot == nil || byQuarter[0].LectureSlot.Quarter == nil || byQuarter[0].LectureSlot.TimeSlot == nil {
		t.Error("期望预加载讲座时段、季度与时间段")
	}

	cancelled, total, _ := repo.Registration.List(ctx, repository.RegistrationFilter{Status: model.RegistrationStatusCancelled})
	if total != 1 || cancelled[0].RegistrationID != third.RegistrationID {
		t.Errorf("状态过滤结果不符合预期: total=%d", total)
	}

	page, total, _ := repo.Registration.List(ctx, repository.RegistrationFilter{Offset: 1, Limit: 1})
	if total != 3 || len(page) != 1 {
		t.Errorf("分页期望 total=3 len=1，实际 total=%d len=%d", total, len(page))
	}

	counts, err := repo.Registration.CountConfirmedByQuarter(ctx)
	if err != nil {
		t.Fatalf("CountConfirmedByQuarter 失败: %v", err)
	}
	if counts[quarter.QuarterID] != 2 || counts[other.QuarterID] != 0 {
		t.Errorf("按季度统计不符合预期: %v", counts)
	}
}

func TestRegistrationRepo_DeleteByQuarter(t *testing.T) {
	db, repo, quarter, slots := setup(t)
	ctx := context.Background()
	_, otherSlots := testutil.CreateQuarter(t, db, 2025, 2, "2025-04-15")

	_ = repo.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "a@x.com"))
	keep := newRegistration(otherSlots[0].LectureSlotID, "a@x.com")
	_ = repo.Registration.Create(ctx, keep)

	if err := repo.Registration.DeleteByQuarter(ctx, quarter.QuarterID); err != nil {
		t.Fatalf("DeleteByQuarter 失败: %v", err)
	}

	_, total, _ := repo.Registration.List(ctx, repository.RegistrationFilter{})
	if total != 1 {
		t.Fatalf("期望剩余 1 条，实际 %d", total)
	}
	if _, err := repo.Registration.GetByID(ctx, keep.RegistrationID); err != nil {
		t.Errorf("其他季度的报名不应被删除: %v", err)
	}
}

// ── Transaction ──

func TestTransaction_Rollback(t *testing.T) {
	_, repo, _, slots := setup(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LectureSlot.MarkClaimed(ctx, slots[0].LectureSlotID); err != nil {
			return err
		}
		if err := tx.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "a@x.com")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望返回 boom，实际: %v", err)
	}

	slot, err := repo.LectureSlot.GetByID(ctx, slots[0].LectureSlotID)
	if err != nil {
		t.Fatalf("查询时段失败: %v", err)
	}
	if !slot.IsAvailable {
		t.Error("回滚后时段应保持可用")
	}
	_, total, _ := repo.Registration.List(ctx, repository.RegistrationFilter{})
	if total != 0 {
		t.Errorf("回滚后不应有报名，实际 %d", total)
	}
}

func TestTransaction_Commit(t *testing.T) {
	db, repo, _, slots := setup(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LectureSlot.MarkClaimed(ctx, slots[0].LectureSlotID); err != nil {
			return err
		}
		return tx.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "a@x.com"))
	})
	if err != nil {
		t.Fatalf("事务提交失败: %v", err)
	}

	testutil.AssertSlotInvariant(t, db)
}

// ── Quarter ──

func TestQuarterRepo_ListOrderingAndActive(t *testing.T) {
	db, repo, first, _ := setup(t)
	ctx := context.Background()
	testutil.CreateQuarter(t, db, 2025, 3, "2025-07-15")
	older, _ := testutil.CreateQuarter(t, db, 2024, 4, "2024-10-15")

	if err := repo.Quarter.UpdateActive(ctx, older.QuarterID, false); err != nil {
		t.Fatalf("UpdateActive 失败: %v", err)
	}

	all, err := repo.Quarter.List(ctx)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(all) != 3 || all[0].QuarterNumber != 3 || all[1].QuarterID != first.QuarterID || all[2].Year != 2024 {
		t.Errorf("排序不符合预期: %+v", all)
	}

	active, _ := repo.Quarter.ListActive(ctx)
	if len(active) != 2 {
		t.Errorf("期望 2 个启用季度，实际 %d", len(active))
	}

	total, activeCount, err := repo.Quarter.Count(ctx)
	if err != nil || total != 3 || activeCount != 2 {
		t.Errorf("Count 期望 3/2，实际 %d/%d err=%v", total, activeCount, err)
	}

	if err := repo.Quarter.UpdateActive(ctx, "missing", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
}

func TestQuarterRepo_UniqueYearNumber(t *testing.T) {
	_, repo, _, _ := setup(t)

	err := repo.Quarter.Create(context.Background(), &model.Quarter{
		Year: 2025, QuarterNumber: 1, MeetingDate: "2025-02-01", IsActive: true,
	})
	if !pkgerrors.IsUniqueViolation(err) {
		t.Errorf("期望唯一约束冲突，实际: %v", err)
	}
}

func TestQuarterRepo_LockForUpdate_NoopOnSQLite(t *testing.T) {
	_, repo, quarter, _ := setup(t)

	err := repo.Transaction(context.Background(), func(tx *repository.Repository) error {
		return tx.Quarter.LockForUpdate(context.Background(), quarter.QuarterID)
	})
	if err != nil {
		t.Errorf("SQLite 下加锁应为空操作，实际: %v", err)
	}
}

// ── AdminUser ──

func TestAdminUserRepo(t *testing.T) {
	_, repo, _, _ := setup(t)
	ctx := context.Background()

	admin := &model.AdminUser{Username: "admin", Email: "admin@hems.local", PasswordHash: "hash"}
	if err := repo.Admin.Create(ctx, admin); err != nil {
		t.Fatalf("创建管理员失败: %v", err)
	}
	if admin.AdminID == "" {
		t.Fatal("期望生成主键")
	}

	found, err := repo.Admin.GetByUsername(ctx, "admin")
	if err != nil || found.AdminID != admin.AdminID {
		t.Fatalf("GetByUsername 失败: %v", err)
	}

	if err := repo.Admin.UpdatePassword(ctx, admin.AdminID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword 失败: %v", err)
	}
	found, _ = repo.Admin.GetByID(ctx, admin.AdminID)
	if found.PasswordHash != "new-hash" {
		t.Errorf("期望密码已更新，实际 %s", found.PasswordHash)
	}

	dup := &model.AdminUser{Username: "admin", Email: "other@hems.local", PasswordHash: "x"}
	if err := repo.Admin.Create(ctx, dup); !pkgerrors.IsUniqueViolation(err) {
		t.Errorf("期望用户名唯一约束冲突，实际: %v", err)
	}

	count, _ := repo.Admin.Count(ctx)
	if count != 1 {
		t.Errorf("期望 1 个管理员，实际 %d", count)
	}
}
