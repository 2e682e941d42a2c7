package entities

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed   AppointmentStatus = "CONFIRMED"
	AppointmentStatusCheckedIn   AppointmentStatus = "CHECKED_IN"
	AppointmentStatusCompleted   AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled   AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow      AppointmentStatus = "NO_SHOW"
	AppointmentStatusRescheduled AppointmentStatus = "RESCHEDULED"
)

// Appointment is one scheduled appointment as reported by the schedule
// service, together with the display fields resolved during enrichment
type Appointment struct {
	ID                     string            `json:"id"`
	AppointmentNumber      string            `json:"appointment_number"`
	DoctorID               string            `json:"doctor_id"`
	PatientID              string            `json:"patient_id"`
	SessionTypeID          string            `json:"session_type_id"`
	SessionOfferingID      string            `json:"session_offering_id"`
	BranchID               string            `json:"branch_id"`
	AppointmentDate        time.Time         `json:"appointment_date"`
	StartTime              *time.Time        `json:"start_time,omitempty"`
	EndTime                *time.Time        `json:"end_time,omitempty"`
	Status                 AppointmentStatus `json:"status"`
	ConsultationType       string            `json:"consultation_type"`
	Notes                  string            `json:"notes"`
	CancellationReason     string            `json:"cancellation_reason,omitempty"`
	CheckedInAt            *time.Time        `json:"checked_in_at,omitempty"`
	SessionDurationMinutes int               `json:"session_duration_minutes"`

	// Display fields populated by enrichment. Each carries a deterministic
	// fallback when its lookup fails, so a report never blocks on them.
	PatientName          string `json:"patient_name"`
	DoctorName           string `json:"doctor_name"`
	SessionTypeName      string `json:"session_type_name"`
	SessionOfferingPrice string `json:"session_offering_price"`
	DurationFormatted    string `json:"duration_formatted"`
}

// FormatDuration derives the display duration from start/end times when both
// are present, falling back to the session duration carried on the record
func (a *Appointment) FormatDuration() string {
	if a.StartTime != nil && a.EndTime != nil && a.EndTime.After(*a.StartTime) {
		minutes := int(a.EndTime.Sub(*a.StartTime).Minutes())
		return fmt.Sprintf("%d minutes", minutes)
	}
	if a.SessionDurationMinutes > 0 {
		return fmt.Sprintf("%d minutes", a.SessionDurationMinutes)
	}
	return ""
}
