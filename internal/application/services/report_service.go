package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/providers"
	"github.com/tinysteps/report-service/internal/domain/repositories"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/upstream"
	"github.com/tinysteps/report-service/internal/infrastructure/observability"
	apperrors "github.com/tinysteps/report-service/pkg/errors"
	"github.com/tinysteps/report-service/pkg/resilience"
)

// ScheduleLookup fetches the appointments a report is built from
type ScheduleLookup interface {
	ListAppointments(ctx context.Context, query upstream.AppointmentQuery) ([]*entities.Appointment, error)
}

// ReportService drives report jobs from creation to a terminal state
type ReportService struct {
	repo          repositories.ReportRepository
	schedule      ScheduleLookup
	scheduleDep   *resilience.Dependency
	enricher      *EnrichmentService
	renderers     map[entities.ReportFormat]providers.Renderer
	sink          providers.EventSink
	eventsChannel string
	metrics       *observability.Metrics
}

// NewReportService creates a new report service. sink may be nil to disable
// event publication.
func NewReportService(
	repo repositories.ReportRepository,
	schedule ScheduleLookup,
	scheduleDep *resilience.Dependency,
	enricher *EnrichmentService,
	renderers []providers.Renderer,
	sink providers.EventSink,
	eventsChannel string,
	metrics *observability.Metrics,
) *ReportService {
	byFormat := make(map[entities.ReportFormat]providers.Renderer, len(renderers))
	for _, renderer := range renderers {
		byFormat[renderer.Format()] = renderer
	}
	return &ReportService{
		repo:          repo,
		schedule:      schedule,
		scheduleDep:   scheduleDep,
		enricher:      enricher,
		renderers:     byFormat,
		sink:          sink,
		eventsChannel: eventsChannel,
		metrics:       metrics,
	}
}

// Generate creates a report job and runs it to a terminal state. A job that
// fails on an upstream or rendering problem is returned in FAILED status
// with its cause recorded; an error return means the job itself could not be
// persisted.
func (s *ReportService) Generate(ctx context.Context, req entities.ReportRequest) (*entities.Report, error) {
	if !entities.ValidReportType(req.ReportType) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown report type %q", req.ReportType))
	}
	if !entities.ValidReportFormat(req.Format) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown report format %q", req.Format))
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperrors.NewValidationError("start date must not be after end date")
	}

	report := entities.NewReport(req)
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	started := time.Now()
	if err := report.MarkProcessing(); err != nil {
		return nil, apperrors.NewInternalError("invalid report state", err)
	}
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)

	// Primary fetch. Unlike enrichment lookups, a failure here fails the
	// whole job; an empty schedule (404) produces an empty report.
	appointments, fetchErr := s.fetchAppointments(ctx, req)
	if fetchErr != nil {
		logger.Error().Err(fetchErr).Str("report_id", report.ID).Msg("schedule fetch failed")
		return s.fail(ctx, report, started, fmt.Sprintf("failed to fetch appointments: %v", fetchErr))
	}

	appointments = s.enricher.EnrichBatch(ctx, appointments)

	renderer, ok := s.renderers[report.Format]
	if !ok {
		return s.fail(ctx, report, started, fmt.Sprintf("no renderer for format %s", report.Format))
	}

	artifact, err := renderer.Render(ctx, report, appointments)
	if err != nil {
		logger.Error().Err(err).Str("report_id", report.ID).Msg("report rendering failed")
		return s.fail(ctx, report, started, fmt.Sprintf("failed to render report: %v", err))
	}

	if err := report.MarkCompleted(artifact.Path, artifact.Size); err != nil {
		return nil, apperrors.NewInternalError("invalid report state", err)
	}
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.NewReportEvent(entities.ReportEventTypeGenerated, report))
	s.recordJob(ctx, report, started)

	logger.Info().
		Str("report_id", report.ID).
		Str("report_type", string(report.ReportType)).
		Int("appointments", len(appointments)).
		Int64("file_size", report.FileSize).
		Msg("report generated")

	return report, nil
}

// GetByID retrieves a report by ID
func (s *ReportService) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return s.repo.GetByID(ctx, id)
}

// Search retrieves reports matching the filter
func (s *ReportService) Search(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	return s.repo.Search(ctx, filter)
}

// fetchAppointments runs the mandatory schedule fetch through the circuit
// breaker. A 404 from the schedule service means no appointments in range.
func (s *ReportService) fetchAppointments(ctx context.Context, req entities.ReportRequest) ([]*entities.Appointment, error) {
	query := upstream.AppointmentQuery{
		BranchID:  req.BranchID,
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		StartDate: &req.StartDate,
		EndDate:   &req.EndDate,
	}

	out := resilience.Invoke(ctx, s.scheduleDep, func(ctx context.Context) ([]*entities.Appointment, error) {
		return s.schedule.ListAppointments(ctx, query)
	})
	recordLookup(ctx, s.metrics, resilience.DepSchedule, out)

	if out.NotFound() {
		return nil, nil
	}
	if !out.OK() {
		return nil, out.Err
	}
	return out.Value, nil
}

// fail drives the report to FAILED, persists it, and publishes the failure
// event. The report is returned without an error; the caller reads the
// terminal state off the entity.
func (s *ReportService) fail(ctx context.Context, report *entities.Report, started time.Time, cause string) (*entities.Report, error) {
	if err := report.MarkFailed(cause); err != nil {
		return nil, apperrors.NewInternalError("invalid report state", err)
	}
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.NewReportEvent(entities.ReportEventTypeFailed, report))
	s.recordJob(ctx, report, started)
	return report, nil
}

// publish sends the lifecycle event best effort; sink failures are logged
// and ignored
func (s *ReportService) publish(ctx context.Context, event *entities.ReportEvent) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, s.eventsChannel, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("report_id", event.ReportID).
			Msg("failed to publish report event")
	}
}

func (s *ReportService) recordJob(ctx context.Context, report *entities.Report, started time.Time) {
	if s.metrics == nil {
		return
	}
	observability.RecordReportMetric(ctx, s.metrics,
		string(report.ReportType), string(report.Format), string(report.Status), time.Since(started))
}
