package upstream

import (
	"time"
)

// Patient is the patient service's record. The display name lives on the
// linked user account, not here.
type Patient struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	MedicalRecordNo string `json:"medicalRecordNumber"`
	BranchID        string `json:"branchId"`
}

// Doctor is the doctor service's record
type Doctor struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Specialization string `json:"specialization"`
	BranchID       string `json:"branchId"`
}

// User is the user service's account record
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// SessionType is the session service's type record
type SessionType struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
}

// SessionOffering is a priced offering of a session type
type SessionOffering struct {
	ID            string  `json:"id"`
	SessionTypeID string  `json:"sessionTypeId"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
}

// AppointmentRecord is one appointment as returned by the schedule service
type AppointmentRecord struct {
	ID                     string     `json:"id"`
	AppointmentNumber      string     `json:"appointmentNumber"`
	DoctorID               string     `json:"doctorId"`
	PatientID              string     `json:"patientId"`
	SessionTypeID          string     `json:"sessionTypeId"`
	SessionOfferingID      string     `json:"sessionOfferingId"`
	BranchID               string     `json:"branchId"`
	AppointmentDate        time.Time  `json:"appointmentDate"`
	StartTime              *time.Time `json:"startTime,omitempty"`
	EndTime                *time.Time `json:"endTime,omitempty"`
	Status                 string     `json:"status"`
	ConsultationType       string     `json:"consultationType"`
	Notes                  string     `json:"notes"`
	CancellationReason     string     `json:"cancellationReason,omitempty"`
	CheckedInAt            *time.Time `json:"checkedInAt,omitempty"`
	SessionDurationMinutes int        `json:"sessionDurationMinutes"`
}

// AppointmentPage is the schedule service's paged envelope
type AppointmentPage struct {
	Content       []AppointmentRecord `json:"content"`
	Page          int                 `json:"page"`
	Size          int                 `json:"size"`
	TotalElements int                 `json:"totalElements"`
	TotalPages    int                 `json:"totalPages"`
}

// AppointmentQuery holds the optional filters for listing appointments
type AppointmentQuery struct {
	BranchID  string
	DoctorID  string
	PatientID string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Size      int
}
