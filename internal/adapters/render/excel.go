package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/providers"
)

const sheetName = "Report"

// ExcelRenderer produces spreadsheet report artifacts
type ExcelRenderer struct {
	storagePath string
}

// NewExcelRenderer creates a spreadsheet renderer writing into storagePath
func NewExcelRenderer(storagePath string) providers.Renderer {
	return &ExcelRenderer{storagePath: storagePath}
}

// Format returns the report format this renderer produces
func (r *ExcelRenderer) Format() entities.ReportFormat {
	return entities.ReportFormatExcel
}

// Render writes the report as an xlsx workbook with a title block followed
// by one row per appointment
func (r *ExcelRenderer) Render(ctx context.Context, report *entities.Report, appointments []*entities.Appointment) (*providers.Artifact, error) {
	if err := os.MkdirAll(r.storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", report.Title)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Branch: %s", report.BranchID))
	f.SetCellValue(sheetName, "A3", fmt.Sprintf("Period: %s to %s",
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02")))
	f.SetCellValue(sheetName, "A4", fmt.Sprintf("Total appointments: %d", len(appointments)))

	const headerRow = 6
	for i, col := range reportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, col)
	}

	for rowIdx, appt := range appointments {
		for colIdx, value := range rowValues(appt) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, headerRow+1+rowIdx)
			if err != nil {
				return nil, fmt.Errorf("failed to compute data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	path := filepath.Join(r.storagePath, artifactFileName(report))
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet report: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat spreadsheet report: %w", err)
	}

	return &providers.Artifact{Path: path, Size: info.Size()}, nil
}
