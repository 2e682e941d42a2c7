package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportType represents the kind of report being generated
type ReportType string

const (
	ReportTypeAppointmentSummary ReportType = "APPOINTMENT_SUMMARY"
	ReportTypeDoctorSchedule     ReportType = "DOCTOR_SCHEDULE"
	ReportTypePatientHistory     ReportType = "PATIENT_HISTORY"
)

// ValidReportType reports whether t is a known report type
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportTypeAppointmentSummary, ReportTypeDoctorSchedule, ReportTypePatientHistory:
		return true
	}
	return false
}

// Label returns the human-readable name used in report titles
func (t ReportType) Label() string {
	switch t {
	case ReportTypeAppointmentSummary:
		return "Appointment Summary"
	case ReportTypeDoctorSchedule:
		return "Doctor Schedule"
	case ReportTypePatientHistory:
		return "Patient History"
	default:
		return string(t)
	}
}

// ReportFormat represents the output format of a report
type ReportFormat string

const (
	ReportFormatPDF   ReportFormat = "PDF"
	ReportFormatExcel ReportFormat = "EXCEL"
)

// ValidReportFormat reports whether f is a known report format
func ValidReportFormat(f ReportFormat) bool {
	return f == ReportFormatPDF || f == ReportFormatExcel
}

// FileExtension returns the artifact file extension for the format
func (f ReportFormat) FileExtension() string {
	if f == ReportFormatExcel {
		return "xlsx"
	}
	return "pdf"
}

// ReportStatus represents the lifecycle state of a report job
type ReportStatus string

const (
	ReportStatusCreated    ReportStatus = "CREATED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// Report represents one report generation job and its artifact
type Report struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	ReportType   ReportType   `json:"report_type" db:"report_type"`
	Format       ReportFormat `json:"format" db:"format"`
	UserID       string       `json:"user_id" db:"user_id"`
	BranchID     string       `json:"branch_id" db:"branch_id"`
	StartDate    time.Time    `json:"start_date" db:"start_date"`
	EndDate      time.Time    `json:"end_date" db:"end_date"`
	Status       ReportStatus `json:"status" db:"status"`
	FilePath     string       `json:"file_path" db:"file_path"`
	FileSize     int64        `json:"file_size" db:"file_size"`
	FailureCause string       `json:"failure_cause,omitempty" db:"failure_cause"`
	GeneratedAt  time.Time    `json:"generated_at" db:"generated_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// ReportRequest is the immutable input for a report generation job
type ReportRequest struct {
	ReportType ReportType   `json:"report_type"`
	Format     ReportFormat `json:"format"`
	UserID     string       `json:"user_id"`
	BranchID   string       `json:"branch_id"`
	DoctorID   string       `json:"doctor_id,omitempty"`
	PatientID  string       `json:"patient_id,omitempty"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
}

// NewReport creates a report job in the CREATED state
func NewReport(req ReportRequest) *Report {
	branch := req.BranchID
	if branch == "" {
		branch = "all"
	}
	now := time.Now()
	return &Report{
		ID:         uuid.New().String(),
		Title:      buildTitle(req.ReportType, req.StartDate, req.EndDate),
		ReportType: req.ReportType,
		Format:     req.Format,
		UserID:     req.UserID,
		BranchID:   branch,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     ReportStatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func buildTitle(t ReportType, start, end time.Time) string {
	return fmt.Sprintf("%s Report (%s to %s)", t.Label(), start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// MarkProcessing transitions the report from CREATED to PROCESSING
func (r *Report) MarkProcessing() error {
	if r.Status != ReportStatusCreated {
		return fmt.Errorf("cannot start processing report %s in status %s", r.ID, r.Status)
	}
	r.Status = ReportStatusProcessing
	r.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted transitions the report to COMPLETED and records the artifact
func (r *Report) MarkCompleted(filePath string, fileSize int64) error {
	if r.Status != ReportStatusProcessing {
		return fmt.Errorf("cannot complete report %s in status %s", r.ID, r.Status)
	}
	r.Status = ReportStatusCompleted
	r.FilePath = filePath
	r.FileSize = fileSize
	r.FailureCause = ""
	r.GeneratedAt = time.Now()
	r.UpdatedAt = r.GeneratedAt
	return nil
}

// MarkFailed transitions the report to FAILED and records the cause
func (r *Report) MarkFailed(cause string) error {
	if r.Status.Terminal() {
		return fmt.Errorf("cannot fail report %s in terminal status %s", r.ID, r.Status)
	}
	r.Status = ReportStatusFailed
	r.FailureCause = cause
	r.FilePath = ""
	r.FileSize = 0
	r.UpdatedAt = time.Now()
	return nil
}
