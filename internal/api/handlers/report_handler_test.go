package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinysteps/report-service/internal/application/services"
	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/providers"
	"github.com/tinysteps/report-service/internal/domain/repositories"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/upstream"
	apperrors "github.com/tinysteps/report-service/pkg/errors"
	"github.com/tinysteps/report-service/pkg/resilience"
)

type memRepo struct {
	mu      sync.Mutex
	reports map[string]entities.Report
}

func (r *memRepo) Create(ctx context.Context, report *entities.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = *report
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report, ok := r.reports[id]; ok {
		copied := report
		return &copied, nil
	}
	return nil, apperrors.NewNotFoundError("report not found")
}

func (r *memRepo) Update(ctx context.Context, report *entities.Report) error {
	return r.Create(ctx, report)
}

func (r *memRepo) Search(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	return nil, nil
}

type stubSchedule struct{}

func (stubSchedule) ListAppointments(ctx context.Context, query upstream.AppointmentQuery) ([]*entities.Appointment, error) {
	return nil, nil
}

type stubPatients struct{}

func (stubPatients) GetByID(ctx context.Context, id string) (*upstream.Patient, error) {
	return nil, resilience.NewCallError(404, nil)
}

type stubDoctors struct{}

func (stubDoctors) GetByID(ctx context.Context, id string) (*upstream.Doctor, error) {
	return nil, resilience.NewCallError(404, nil)
}

type stubUsers struct{}

func (stubUsers) GetByID(ctx context.Context, id string) (*upstream.User, error) {
	return nil, resilience.NewCallError(404, nil)
}

type stubSessions struct{}

func (stubSessions) GetSessionType(ctx context.Context, id string) (*upstream.SessionType, error) {
	return nil, resilience.NewCallError(404, nil)
}

func (stubSessions) GetSessionOffering(ctx context.Context, id string) (*upstream.SessionOffering, error) {
	return nil, resilience.NewCallError(404, nil)
}

type stubRenderer struct{}

func (stubRenderer) Format() entities.ReportFormat { return entities.ReportFormatPDF }

func (stubRenderer) Render(ctx context.Context, report *entities.Report, appointments []*entities.Appointment) (*providers.Artifact, error) {
	return &providers.Artifact{Path: "/reports/" + report.ID + ".pdf", Size: 64}, nil
}

func buildHandler(t *testing.T) (*ReportHandler, *memRepo) {
	t.Helper()

	repo := &memRepo{reports: make(map[string]entities.Report)}
	reg := resilience.NewRegistry()
	policy := resilience.DefaultPolicy()
	policy.MaxAttempts = 1
	policy.BackoffBase = time.Millisecond

	deps := services.EnrichmentDeps{
		Patient: reg.Register(resilience.DepPatient, policy),
		Doctor:  reg.Register(resilience.DepDoctor, policy),
		User:    reg.Register(resilience.DepUser, policy),
		Session: reg.Register(resilience.DepSession, policy),
	}
	enricher := services.NewEnrichmentService(deps, stubPatients{}, stubDoctors{}, stubUsers{}, stubSessions{}, nil, 0, 2, nil)

	svc := services.NewReportService(
		repo,
		stubSchedule{},
		reg.Register(resilience.DepSchedule, policy),
		enricher,
		[]providers.Renderer{stubRenderer{}},
		nil,
		"report-events",
		nil,
	)

	return NewReportHandler(svc, t.TempDir()), repo
}

func TestGenerateReport(t *testing.T) {
	handler, _ := buildHandler(t)

	body := `{"reportType":"APPOINTMENT_SUMMARY","format":"PDF","startDate":"2025-03-01","endDate":"2025-03-31"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.GenerateReport(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"COMPLETED"`)
}

func TestGenerateReport_Validation(t *testing.T) {
	handler, _ := buildHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing type", `{"format":"PDF","startDate":"2025-03-01","endDate":"2025-03-31"}`},
		{"missing format", `{"reportType":"APPOINTMENT_SUMMARY","startDate":"2025-03-01","endDate":"2025-03-31"}`},
		{"bad start date", `{"reportType":"APPOINTMENT_SUMMARY","format":"PDF","startDate":"03/01/2025","endDate":"2025-03-31"}`},
		{"end before start", `{"reportType":"APPOINTMENT_SUMMARY","format":"PDF","startDate":"2025-03-31","endDate":"2025-03-01"}`},
		{"unknown type", `{"reportType":"WEEKLY_DIGEST","format":"PDF","startDate":"2025-03-01","endDate":"2025-03-31"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.GenerateReport(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetReport_NotFound(t *testing.T) {
	handler, _ := buildHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	handler.GetReport(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestSearchReports_EmptyResultIsJSONArray(t *testing.T) {
	handler, _ := buildHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/search?reportType=APPOINTMENT_SUMMARY", nil)
	rec := httptest.NewRecorder()

	handler.SearchReports(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSearchReports_BadDate(t *testing.T) {
	handler, _ := buildHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/search?startDate=yesterday", nil)
	rec := httptest.NewRecorder()

	handler.SearchReports(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadReport_OnlyCompleted(t *testing.T) {
	handler, repo := buildHandler(t)

	report := entities.NewReport(entities.ReportRequest{
		ReportType: entities.ReportTypeAppointmentSummary,
		Format:     entities.ReportFormatPDF,
		StartDate:  time.Now(),
		EndDate:    time.Now(),
	})
	require.NoError(t, repo.Create(context.Background(), report))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+report.ID+"/download", nil)
	req.SetPathValue("id", report.ID)
	rec := httptest.NewRecorder()

	handler.DownloadReport(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CREATED")
}

func TestDownloadFile_RejectsPathTraversal(t *testing.T) {
	handler, _ := buildHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/download/x", nil)
	req.SetPathValue("filename", "../../etc/passwd")
	rec := httptest.NewRecorder()

	handler.DownloadFile(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentTypeForFile(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeForFile("r.pdf"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentTypeForFile("r.xlsx"))
	assert.Equal(t, "application/octet-stream", contentTypeForFile("r.bin"))
}
