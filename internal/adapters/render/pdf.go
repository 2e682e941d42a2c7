package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/providers"
)

// Table layout shared by both renderers
var reportColumns = []string{
	"Appointment Number", "Patient", "Doctor", "Session Type",
	"Price", "Duration", "Date & Time", "Status", "Notes",
}

var pdfColumnWidths = []float64{34, 34, 34, 30, 18, 20, 34, 24, 49}

// PDFRenderer produces PDF report artifacts
type PDFRenderer struct {
	storagePath string
}

// NewPDFRenderer creates a PDF renderer writing into storagePath
func NewPDFRenderer(storagePath string) providers.Renderer {
	return &PDFRenderer{storagePath: storagePath}
}

// Format returns the report format this renderer produces
func (r *PDFRenderer) Format() entities.ReportFormat {
	return entities.ReportFormatPDF
}

// Render writes the report as a landscape A4 PDF
func (r *PDFRenderer) Render(ctx context.Context, report *entities.Report, appointments []*entities.Appointment) (*providers.Artifact, error) {
	if err := os.MkdirAll(r.storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Title and parameters block
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, report.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Branch: %s", report.BranchID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s",
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total appointments: %d", len(appointments)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Header row
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range reportColumns {
		pdf.CellFormat(pdfColumnWidths[i], 8, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, appt := range appointments {
		for i, value := range rowValues(appt) {
			pdf.CellFormat(pdfColumnWidths[i], 7, truncate(value, 40), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	path := filepath.Join(r.storagePath, artifactFileName(report))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return nil, fmt.Errorf("failed to write PDF report: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF report: %w", err)
	}

	return &providers.Artifact{Path: path, Size: info.Size()}, nil
}

func rowValues(appt *entities.Appointment) []string {
	dateTime := appt.AppointmentDate.Format("2006-01-02")
	if appt.StartTime != nil {
		dateTime = appt.StartTime.Format("2006-01-02 15:04")
	}
	return []string{
		appt.AppointmentNumber,
		appt.PatientName,
		appt.DoctorName,
		appt.SessionTypeName,
		appt.SessionOfferingPrice,
		appt.DurationFormatted,
		dateTime,
		string(appt.Status),
		appt.Notes,
	}
}

func artifactFileName(report *entities.Report) string {
	return fmt.Sprintf("%s.%s", report.ID, report.Format.FileExtension())
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
