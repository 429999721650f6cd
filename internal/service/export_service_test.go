package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"hems-scheduler/backend/internal/dto"
)

func newExportFixture(t *testing.T) (*testEnv, ExportService, string) {
	t.Helper()
	env, quarter, slots := newTestEnv(t)
	ctx := context.Background()

	info := SpeakerInfo{
		Name:       "Dr. A",
		Email:      "a@x.com",
		Phone:      "555-0100",
		Specialty:  "EM",
		TopicTitle: "Trauma",
	}
	if _, err := env.reg.Register(ctx, slots[0].LectureSlotID, info); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	b, _ := env.reg.Register(ctx, slots[1].LectureSlotID, speaker("Dr. B", "b@x.com"))
	_, _ = env.reg.Cancel(ctx, b.ID)

	return env, NewExportService(env.repo, env.clock, zap.NewNop()), quarter.QuarterID
}

func TestExportRegistrations_XLSX(t *testing.T) {
	_, svc, quarterID := newExportFixture(t)

	file, err := svc.ExportRegistrations(context.Background(), &dto.ExportRequest{
		QuarterID: quarterID,
		Status:    "confirmed",
	})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if file.Filename != "speaker_registrations_2025Q1_20250102.xlsx" {
		t.Errorf("文件名不符合预期: %s", file.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	if err != nil {
		t.Fatalf("无法读取导出的 xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Registrations")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行，实际 %d 行", len(rows))
	}
	if rows[0][0] != "Quarter" || len(rows[0]) != len(exportHeaders) {
		t.Errorf("表头不符合预期: %v", rows[0])
	}
	want := []string{"2025 Q1", "2025-01-15", "09:00-10:00", "Dr. A", "a@x.com", "555-0100", "EM", "Trauma"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("第 %d 列期望 %q，实际 %q", i, v, rows[1][i])
		}
	}
}

func TestExportRegistrations_CSV(t *testing.T) {
	_, svc, _ := newExportFixture(t)

	file, err := svc.ExportRegistrations(context.Background(), &dto.ExportRequest{Format: ExportFormatCSV})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if file.Filename != "speaker_registrations_all_20250102.csv" {
		t.Errorf("文件名不符合预期: %s", file.Filename)
	}

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	if err != nil {
		t.Fatalf("解析 CSV 失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("期望表头 + 2 行，实际 %d 行", len(records))
	}
	statuses := map[string]bool{}
	for _, r := range records[1:] {
		statuses[r[len(r)-1]] = true
	}
	if !statuses["confirmed"] || !statuses["cancelled"] {
		t.Errorf("未过滤状态时应包含全部报名，实际 %v", statuses)
	}
}

func TestExportRegistrations_Errors(t *testing.T) {
	_, svc, _ := newExportFixture(t)
	ctx := context.Background()

	_, err := svc.ExportRegistrations(ctx, &dto.ExportRequest{Format: "pdf"})
	assertErr(t, err, ErrValidation)

	_, err = svc.ExportRegistrations(ctx, &dto.ExportRequest{QuarterID: "missing"})
	assertErr(t, err, ErrQuarterNotFound)
}
