package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() ReportRequest {
	return ReportRequest{
		ReportType: ReportTypeAppointmentSummary,
		Format:     ReportFormatPDF,
		UserID:     "user-1",
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport(sampleRequest())

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, ReportStatusCreated, report.Status)
	assert.Equal(t, "all", report.BranchID)
	assert.Equal(t, "Appointment Summary Report (2025-03-01 to 2025-03-31)", report.Title)
}

func TestNewReport_KeepsExplicitBranch(t *testing.T) {
	req := sampleRequest()
	req.BranchID = "branch-7"

	report := NewReport(req)
	assert.Equal(t, "branch-7", report.BranchID)
}

func TestReportLifecycle_HappyPath(t *testing.T) {
	report := NewReport(sampleRequest())

	require.NoError(t, report.MarkProcessing())
	assert.Equal(t, ReportStatusProcessing, report.Status)

	require.NoError(t, report.MarkCompleted("/reports/x.pdf", 2048))
	assert.Equal(t, ReportStatusCompleted, report.Status)
	assert.Equal(t, "/reports/x.pdf", report.FilePath)
	assert.Equal(t, int64(2048), report.FileSize)
	assert.Empty(t, report.FailureCause)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestReportLifecycle_Failure(t *testing.T) {
	report := NewReport(sampleRequest())

	require.NoError(t, report.MarkProcessing())
	require.NoError(t, report.MarkFailed("schedule service unavailable"))

	assert.Equal(t, ReportStatusFailed, report.Status)
	assert.Equal(t, "schedule service unavailable", report.FailureCause)
	assert.Empty(t, report.FilePath)
}

func TestReportLifecycle_TerminalStatesAreImmutable(t *testing.T) {
	completed := NewReport(sampleRequest())
	require.NoError(t, completed.MarkProcessing())
	require.NoError(t, completed.MarkCompleted("/reports/x.pdf", 10))

	assert.Error(t, completed.MarkProcessing())
	assert.Error(t, completed.MarkFailed("too late"))
	assert.Error(t, completed.MarkCompleted("/reports/y.pdf", 20))
	assert.Equal(t, ReportStatusCompleted, completed.Status)

	failed := NewReport(sampleRequest())
	require.NoError(t, failed.MarkProcessing())
	require.NoError(t, failed.MarkFailed("boom"))

	assert.Error(t, failed.MarkProcessing())
	assert.Error(t, failed.MarkCompleted("/reports/z.pdf", 30))
	assert.Equal(t, ReportStatusFailed, failed.Status)
}

func TestReportLifecycle_CannotCompleteFromCreated(t *testing.T) {
	report := NewReport(sampleRequest())
	assert.Error(t, report.MarkCompleted("/reports/x.pdf", 10))
}

func TestFormatDuration(t *testing.T) {
	start := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	tests := []struct {
		name string
		appt Appointment
		want string
	}{
		{"from start and end times", Appointment{StartTime: &start, EndTime: &end}, "45 minutes"},
		{"from session duration", Appointment{SessionDurationMinutes: 30}, "30 minutes"},
		{"start and end take precedence", Appointment{StartTime: &start, EndTime: &end, SessionDurationMinutes: 30}, "45 minutes"},
		{"nothing available", Appointment{}, ""},
		{"end before start falls back", Appointment{StartTime: &end, EndTime: &start, SessionDurationMinutes: 15}, "15 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.appt.FormatDuration())
		})
	}
}

func TestValidReportTypeAndFormat(t *testing.T) {
	assert.True(t, ValidReportType(ReportTypeDoctorSchedule))
	assert.False(t, ValidReportType(ReportType("WEEKLY_DIGEST")))

	assert.True(t, ValidReportFormat(ReportFormatExcel))
	assert.False(t, ValidReportFormat(ReportFormat("CSV")))

	assert.Equal(t, "pdf", ReportFormatPDF.FileExtension())
	assert.Equal(t, "xlsx", ReportFormatExcel.FileExtension())
}
