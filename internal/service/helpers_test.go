package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/internal/clock"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/notify"
	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/internal/testutil"
)

var testNow = time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)

// recordingNotifier 记录收到的事件，可注入失败
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

type testEnv struct {
	db       *gorm.DB
	repo     *repository.Repository
	clock    *clock.Fixed
	notifier *recordingNotifier
	reg      RegistrationService
	quarter  QuarterService
}

// newTestEnv 内存库 + 默认时间段 + 2025 Q1（三个讲座时段，按时间排序）
func newTestEnv(t *testing.T) (*testEnv, *model.Quarter, []model.LectureSlot) {
	t.Helper()

	db := testutil.NewTestDB(t)
	testutil.SeedTimeSlots(t, db)
	quarter, slots := testutil.CreateQuarter(t, db, 2025, 1, "2025-01-15")

	repo := repository.NewRepository(db)
	clk := clock.NewFixed(testNow)
	notifier := &recordingNotifier{}

	return &testEnv{
		db:       db,
		repo:     repo,
		clock:    clk,
		notifier: notifier,
		reg:      NewRegistrationService(repo, notifier, clk, time.Second, zap.NewNop()),
		quarter:  NewQuarterService(repo, clk, zap.NewNop()),
	}, quarter, slots
}

func speaker(name, email string) SpeakerInfo {
	return SpeakerInfo{Name: name, Email: email, TopicTitle: "Trauma"}
}

func (e *testEnv) slot(t *testing.T, id string) *model.LectureSlot {
	t.Helper()
	slot, err := e.repo.LectureSlot.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("查询讲座时段失败: %v", err)
	}
	return slot
}

func assertErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("期望 %v，实际: %v", want, err)
	}
}
