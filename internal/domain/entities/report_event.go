package entities

import (
	"time"
)

// ReportEventType represents the type of report lifecycle event
type ReportEventType string

const (
	ReportEventTypeGenerated ReportEventType = "REPORT_GENERATED"
	ReportEventTypeFailed    ReportEventType = "REPORT_FAILED"
)

// ReportEvent represents a report lifecycle notification published to
// interested consumers
type ReportEvent struct {
	EventType  ReportEventType `json:"event_type"`
	ReportID   string          `json:"report_id"`
	ReportType ReportType      `json:"report_type"`
	UserID     string          `json:"user_id"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewReportEvent creates a lifecycle event for the given report
func NewReportEvent(eventType ReportEventType, report *Report) *ReportEvent {
	return &ReportEvent{
		EventType:  eventType,
		ReportID:   report.ID,
		ReportType: report.ReportType,
		UserID:     report.UserID,
		Timestamp:  time.Now(),
	}
}
