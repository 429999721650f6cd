package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/internal/testutil"
)

func TestTimeSlotSeedDefaults(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewTimeSlotService(repository.NewRepository(db), zap.NewNop())
	ctx := context.Background()

	created, err := svc.SeedDefaults(ctx)
	if err != nil || created != 3 {
		t.Fatalf("期望写入 3 个默认时间段，实际 %d err=%v", created, err)
	}

	created, err = svc.SeedDefaults(ctx)
	if err != nil || created != 0 {
		t.Errorf("重复执行不应写入，实际 %d err=%v", created, err)
	}

	slots, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	want := []string{"09:00", "10:00", "11:00"}
	if len(slots) != len(want) {
		t.Fatalf("期望 %d 个时间段，实际 %d", len(want), len(slots))
	}
	for i, s := range slots {
		if s.StartTime != want[i] {
			t.Errorf("第 %d 个时间段期望 %s，实际 %s", i, want[i], s.StartTime)
		}
	}
	if slots[0].EndTime != "10:00" || slots[0].DisplayName == "" {
		t.Errorf("时间段信息不完整: %+v", slots[0])
	}
}
