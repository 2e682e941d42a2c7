package render

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tinysteps/report-service/internal/domain/entities"
)

func sampleReport() *entities.Report {
	return &entities.Report{
		ID:         "report-1",
		Title:      "Appointment Summary Report (2025-03-01 to 2025-03-31)",
		ReportType: entities.ReportTypeAppointmentSummary,
		BranchID:   "all",
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func sampleAppointments() []*entities.Appointment {
	start := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	return []*entities.Appointment{
		{
			ID:                   "a-1",
			AppointmentNumber:    "APT-0001",
			AppointmentDate:      start,
			StartTime:            &start,
			EndTime:              &end,
			Status:               entities.AppointmentStatusCompleted,
			PatientName:          "Jane Doe",
			DoctorName:           "Dr. Gregory House",
			SessionTypeName:      "Speech Therapy",
			SessionOfferingPrice: "$120.00",
			DurationFormatted:    "30 minutes",
			Notes:                "Follow-up session",
		},
		{
			ID:                   "a-2",
			AppointmentNumber:    "APT-0002",
			AppointmentDate:      start.AddDate(0, 0, 1),
			Status:               entities.AppointmentStatusCancelled,
			PatientName:          "Patient ID: p-77",
			DoctorName:           "Dr. Lisa Cuddy",
			SessionTypeName:      "Session Type ID: st-3",
			SessionOfferingPrice: "N/A",
		},
	}
}

func TestPDFRenderer(t *testing.T) {
	dir := t.TempDir()
	renderer := NewPDFRenderer(dir)

	report := sampleReport()
	report.Format = entities.ReportFormatPDF

	artifact, err := renderer.Render(context.Background(), report, sampleAppointments())
	require.NoError(t, err)

	assert.Equal(t, entities.ReportFormatPDF, renderer.Format())
	assert.Equal(t, filepath.Join(dir, "report-1.pdf"), artifact.Path)
	assert.Greater(t, artifact.Size, int64(0))
}

func TestPDFRenderer_EmptyReport(t *testing.T) {
	dir := t.TempDir()
	renderer := NewPDFRenderer(dir)

	report := sampleReport()
	report.Format = entities.ReportFormatPDF

	artifact, err := renderer.Render(context.Background(), report, nil)
	require.NoError(t, err)
	assert.Greater(t, artifact.Size, int64(0))
}

func TestExcelRenderer(t *testing.T) {
	dir := t.TempDir()
	renderer := NewExcelRenderer(dir)

	report := sampleReport()
	report.Format = entities.ReportFormatExcel

	artifact, err := renderer.Render(context.Background(), report, sampleAppointments())
	require.NoError(t, err)

	assert.Equal(t, entities.ReportFormatExcel, renderer.Format())
	assert.Equal(t, filepath.Join(dir, "report-1.xlsx"), artifact.Path)
	assert.Greater(t, artifact.Size, int64(0))

	// Verify the workbook content round-trips.
	f, err := excelize.OpenFile(artifact.Path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, report.Title, title)

	firstHeader, err := f.GetCellValue(sheetName, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Appointment Number", firstHeader)

	patient, err := f.GetCellValue(sheetName, "B7")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", patient)

	fallbackPrice, err := f.GetCellValue(sheetName, "E8")
	require.NoError(t, err)
	assert.Equal(t, "N/A", fallbackPrice)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "0123456...", truncate("0123456789extra", 10))
}

func TestTruncate_MultiByteNames(t *testing.T) {
	assert.Equal(t, "Ngọc Ánh", truncate("Ngọc Ánh", 10))

	got := truncate("Nguyễn Thị Ngọc Ánh Phương", 10)
	assert.Equal(t, "Nguyễn ...", got)
	assert.True(t, utf8.ValidString(got))
}
