//go:build integration

package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/internal/testutil"
	pkgerrors "hems-scheduler/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Postgres 集成测试：TEST_DATABASE_DSN 指向一个可清空的测试库
// ═══════════════════════════════════════════════════════════

func TestPostgres_ConcurrentClaim(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	testutil.TruncateAll(t, db)
	testutil.SeedTimeSlots(t, db)
	_, slots := testutil.CreateQuarter(t, db, 2025, 1, "2025-01-15")

	repo := repository.NewRepository(db)
	ctx := context.Background()
	slotID := slots[0].LectureSlotID

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		losses  int
		unknown []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Transaction(ctx, func(tx *repository.Repository) error {
				if err := tx.LectureSlot.MarkClaimed(ctx, slotID); err != nil {
					return err
				}
				return tx.Registration.Create(ctx, &model.SpeakerRegistration{
					LectureSlotID: slotID,
					SpeakerName:   "Speaker",
					SpeakerEmail:  "s@x.com",
					TopicTitle:    "Topic",
					Status:        model.RegistrationStatusConfirmed,
					RegisteredAt:  time.Now().UTC(),
				})
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, pkgerrors.ErrConditionNotMet):
				losses++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || losses != workers-1 {
		t.Errorf("期望 1 胜 %d 负，实际 %d 胜 %d 负，其他错误: %v", workers-1, wins, losses, unknown)
	}
	testutil.AssertSlotInvariant(t, db)
}

func TestPostgres_PartialUniqueIndex(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	testutil.TruncateAll(t, db)
	testutil.SeedTimeSlots(t, db)
	_, slots := testutil.CreateQuarter(t, db, 2025, 1, "2025-01-15")

	repo := repository.NewRepository(db)
	ctx := context.Background()

	if err := repo.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "a@x.com")); err != nil {
		t.Fatalf("创建报名失败: %v", err)
	}
	err := repo.Registration.Create(ctx, newRegistration(slots[0].LectureSlotID, "b@x.com"))
	if !pkgerrors.IsUniqueViolation(err) {
		t.Errorf("期望 23505 唯一约束冲突，实际: %v", err)
	}
}

func TestPostgres_LockForUpdate(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	testutil.TruncateAll(t, db)
	testutil.SeedTimeSlots(t, db)
	quarter, _ := testutil.CreateQuarter(t, db, 2025, 1, "2025-01-15")

	repo := repository.NewRepository(db)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Quarter.LockForUpdate(ctx, quarter.QuarterID)
	})
	if err != nil {
		t.Errorf("LockForUpdate 失败: %v", err)
	}
}
