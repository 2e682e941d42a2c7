package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tinysteps/report-service/internal/domain/entities"
)

// ScheduleClient fetches appointments from the schedule service
type ScheduleClient struct {
	client *Client
}

// NewScheduleClient creates a schedule service client
func NewScheduleClient(client *Client) *ScheduleClient {
	return &ScheduleClient{client: client}
}

// ListAppointments retrieves all appointments matching the query, walking
// the schedule service's pagination until exhausted
func (s *ScheduleClient) ListAppointments(ctx context.Context, query AppointmentQuery) ([]*entities.Appointment, error) {
	size := query.Size
	if size <= 0 {
		size = 200
	}

	var appointments []*entities.Appointment
	page := query.Page

	for {
		envelope := &AppointmentPage{}
		if err := s.client.GetJSON(ctx, appointmentsPath(query, page, size), envelope); err != nil {
			return nil, err
		}

		for i := range envelope.Content {
			appointments = append(appointments, toAppointment(&envelope.Content[i]))
		}

		page++
		if page >= envelope.TotalPages || len(envelope.Content) == 0 {
			break
		}
	}

	return appointments, nil
}

func appointmentsPath(query AppointmentQuery, page, size int) string {
	values := url.Values{}
	if query.BranchID != "" && query.BranchID != "all" {
		values.Set("branchId", query.BranchID)
	}
	if query.DoctorID != "" {
		values.Set("doctorId", query.DoctorID)
	}
	if query.PatientID != "" {
		values.Set("patientId", query.PatientID)
	}
	if query.StartDate != nil {
		values.Set("startDate", query.StartDate.Format("2006-01-02"))
	}
	if query.EndDate != nil {
		values.Set("endDate", query.EndDate.Format("2006-01-02"))
	}
	values.Set("page", fmt.Sprintf("%d", page))
	values.Set("size", fmt.Sprintf("%d", size))

	return "/api/v1/appointments?" + values.Encode()
}

func toAppointment(record *AppointmentRecord) *entities.Appointment {
	return &entities.Appointment{
		ID:                     record.ID,
		AppointmentNumber:      record.AppointmentNumber,
		DoctorID:               record.DoctorID,
		PatientID:              record.PatientID,
		SessionTypeID:          record.SessionTypeID,
		SessionOfferingID:      record.SessionOfferingID,
		BranchID:               record.BranchID,
		AppointmentDate:        record.AppointmentDate,
		StartTime:              cloneTime(record.StartTime),
		EndTime:                cloneTime(record.EndTime),
		Status:                 entities.AppointmentStatus(record.Status),
		ConsultationType:       record.ConsultationType,
		Notes:                  record.Notes,
		CancellationReason:     record.CancellationReason,
		CheckedInAt:            cloneTime(record.CheckedInAt),
		SessionDurationMinutes: record.SessionDurationMinutes,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
