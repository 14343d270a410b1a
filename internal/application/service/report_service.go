package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sweetcrumb/bakebill-api/internal/domain/repository"
	"github.com/sweetcrumb/bakebill-api/pkg/apperror"
	"github.com/xuri/excelize/v2"
)

// RevenueReport is the aggregate returned to the reports endpoint.
type RevenueReport struct {
	StartDate    string                    `json:"start_date"`
	EndDate      string                    `json:"end_date"`
	Days         []repository.DailyRevenue `json:"days"`
	TotalRevenue float64                   `json:"total_revenue"`
	TotalBills   int64                     `json:"total_bills"`
}

type ReportService struct {
	billRepo repository.BillRepository
}

func NewReportService(billRepo repository.BillRepository) *ReportService {
	return &ReportService{billRepo: billRepo}
}

// Revenue aggregates per-day revenue between start and end inclusive.
func (s *ReportService) Revenue(ctx context.Context, start, end time.Time) (*RevenueReport, error) {
	if end.Before(start) {
		return nil, apperror.NewBadRequestError("end date must not be before start date")
	}

	days, err := s.billRepo.RevenueByDay(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &RevenueReport{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Days:      days,
	}
	for _, d := range days {
		report.TotalRevenue += d.TotalRevenue
		report.TotalBills += d.TotalBills
	}
	return report, nil
}

// ExportRevenueXLSX renders the revenue report as an Excel workbook.
// Returns the file bytes and a suggested download filename.
func (s *ReportService) ExportRevenueXLSX(ctx context.Context, start, end time.Time) ([]byte, string, error) {
	report, err := s.Revenue(ctx, start, end)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Revenue"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", apperror.NewAppError(500, "failed to build revenue workbook: "+err.Error())
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", apperror.NewAppError(500, "failed to build revenue workbook: "+err.Error())
	}

	headers := []string{"Date", "Bills", "Revenue"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "C", "C", 14)

	row := 2
	for _, d := range report.Days {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), d.Date)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), d.TotalBills)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), d.TotalRevenue)
		row++
	}

	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", apperror.NewAppError(500, "failed to build revenue workbook: "+err.Error())
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), report.TotalBills)
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), report.TotalRevenue)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), totalStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", apperror.NewAppError(500, "failed to build revenue workbook: "+err.Error())
	}

	filename := fmt.Sprintf("revenue_%s_%s.xlsx", report.StartDate, report.EndDate)
	return buf.Bytes(), filename, nil
}
