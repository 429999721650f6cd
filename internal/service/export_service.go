package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hems-scheduler/backend/internal/clock"
	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

var exportHeaders = []string{
	"Quarter", "Meeting Date", "Time Slot", "Speaker Name", "Email", "Phone",
	"Specialty", "Topic Title", "Topic Description", "Registration Date", "Status",
}

// ExportFile 导出结果，由 Handler 层设置响应头后写出
type ExportFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService 报名导出业务接口
type ExportService interface {
	ExportRegistrations(ctx context.Context, req *dto.ExportRequest) (*ExportFile, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, clock: clk, logger: logger}
}

// ExportRegistrations 导出报名记录，可按季度与状态过滤，默认 xlsx
func (s *exportService) ExportRegistrations(ctx context.Context, req *dto.ExportRequest) (*ExportFile, error) {
	format := req.Format
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatXLSX && format != ExportFormatCSV {
		return nil, validationError("format 只能为 xlsx 或 csv")
	}

	scope := "all"
	if req.QuarterID != "" {
		quarter, err := s.repo.Quarter.GetByID(ctx, req.QuarterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrQuarterNotFound
			}
			s.logger.Error("查询季度失败", zap.String("id", req.QuarterID), zap.Error(err))
			return nil, storageError(err)
		}
		scope = fmt.Sprintf("%dQ%d", quarter.Year, quarter.QuarterNumber)
	}

	regs, _, err := s.repo.Registration.List(ctx, repository.RegistrationFilter{
		QuarterID: req.QuarterID,
		Status:    req.Status,
	})
	if err != nil {
		s.logger.Error("查询导出数据失败", zap.Error(err))
		return nil, storageError(err)
	}

	rows := make([][]string, 0, len(regs))
	for i := range regs {
		rows = append(rows, exportRow(&regs[i]))
	}

	filename := fmt.Sprintf("speaker_registrations_%s_%s.%s", scope, s.clock.Now().Format("20060102"), format)

	var data []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		data, err = writeCSV(rows)
		contentType = "text/csv; charset=utf-8"
	default:
		data, err = writeXLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		s.logger.Error("生成导出文件失败", zap.String("format", format), zap.Error(err))
		return nil, ErrExportGenerateFail
	}

	s.logger.Info("报名数据已导出", zap.String("file", filename), zap.Int("rows", len(rows)))
	return &ExportFile{Data: data, Filename: filename, ContentType: contentType}, nil
}

func exportRow(reg *model.SpeakerRegistration) []string {
	var quarter, meetingDate, slot string
	if ls := reg.LectureSlot; ls != nil {
		if ls.Quarter != nil {
			quarter = ls.Quarter.Label()
			meetingDate = ls.Quarter.MeetingDate
		}
		if ls.TimeSlot != nil {
			slot = ls.TimeSlot.Range()
		}
	}
	return []string{
		quarter,
		meetingDate,
		slot,
		reg.SpeakerName,
		reg.SpeakerEmail,
		deref(reg.SpeakerPhone),
		deref(reg.Specialty),
		reg.TopicTitle,
		deref(reg.TopicDescription),
		reg.RegisteredAt.UTC().Format("2006-01-02 15:04"),
		reg.Status,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writeCSV(rows [][]string) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Registrations"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	// 列宽
	_ = f.SetColWidth(sheet, "A", "C", 14)
	_ = f.SetColWidth(sheet, "D", "E", 26)
	_ = f.SetColWidth(sheet, "F", "G", 16)
	_ = f.SetColWidth(sheet, "H", "I", 40)
	_ = f.SetColWidth(sheet, "J", "K", 18)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
