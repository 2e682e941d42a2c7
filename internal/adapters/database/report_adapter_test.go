package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinysteps/report-service/internal/adapters/database"
	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/repositories"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/postgres"
	apperrors "github.com/tinysteps/report-service/pkg/errors"
)

func setupAdapter(t *testing.T) (repositories.ReportRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return database.NewReportAdapter(postgres.NewClientFromDB(db)), mock
}

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "report_type", "format", "user_id", "branch_id",
		"start_date", "end_date", "status", "file_path", "file_size",
		"failure_cause", "generated_at", "created_at", "updated_at",
	})
}

func TestReportAdapter_Create(t *testing.T) {
	adapter, mock := setupAdapter(t)

	report := entities.NewReport(entities.ReportRequest{
		ReportType: entities.ReportTypeAppointmentSummary,
		Format:     entities.ReportFormatPDF,
		UserID:     "user-1",
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})

	mock.ExpectExec(`INSERT INTO "reports"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.Create(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_GetByID_NotFound(t *testing.T) {
	adapter, mock := setupAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "reports"`).
		WillReturnRows(reportRows())

	report, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, report)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestReportAdapter_GetByID(t *testing.T) {
	adapter, mock := setupAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM "reports" WHERE \("id" = 'r-1'\)`).
		WillReturnRows(reportRows().AddRow(
			"r-1", "Appointment Summary Report (2025-03-01 to 2025-03-31)",
			"APPOINTMENT_SUMMARY", "PDF", "user-1", "all",
			now, now, "COMPLETED", "/reports/r-1.pdf", int64(4096),
			nil, now, now, now,
		))

	report, err := adapter.GetByID(context.Background(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, "r-1", report.ID)
	assert.Equal(t, entities.ReportStatusCompleted, report.Status)
	assert.Equal(t, "/reports/r-1.pdf", report.FilePath)
	assert.Equal(t, int64(4096), report.FileSize)
	assert.Empty(t, report.FailureCause)
}

func TestReportAdapter_Update_NotFound(t *testing.T) {
	adapter, mock := setupAdapter(t)

	mock.ExpectExec(`UPDATE "reports"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	report := &entities.Report{ID: "missing", Status: entities.ReportStatusFailed}
	err := adapter.Update(context.Background(), report)

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestReportAdapter_Search_AllPredicates(t *testing.T) {
	adapter, mock := setupAdapter(t)

	start := time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC)
	end := time.Date(2025, 3, 20, 15, 45, 0, 0, time.UTC)

	// Date bounds are widened to whole calendar days.
	mock.ExpectQuery(`SELECT .+ FROM "reports" WHERE .*"report_type" = 'APPOINTMENT_SUMMARY'.*"user_id" = 'user-1'.*"branch_id" = 'branch-2'.*"created_at" >= .*00:00:00.*"created_at" <= .*23:59:59.* ORDER BY "created_at" DESC`).
		WillReturnRows(reportRows())

	_, err := adapter.Search(context.Background(), repositories.ReportFilter{
		ReportType: entities.ReportTypeAppointmentSummary,
		UserID:     "user-1",
		BranchID:   "branch-2",
		StartDate:  &start,
		EndDate:    &end,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_Search_NoPredicates(t *testing.T) {
	adapter, mock := setupAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM "reports" ORDER BY "created_at" DESC`).
		WillReturnRows(reportRows().
			AddRow("r-1", "t", "APPOINTMENT_SUMMARY", "PDF", "u", "all", now, now, "CREATED", nil, nil, nil, nil, now, now).
			AddRow("r-2", "t", "DOCTOR_SCHEDULE", "EXCEL", "u", "all", now, now, "FAILED", nil, nil, "schedule unavailable", nil, now, now))

	reports, err := adapter.Search(context.Background(), repositories.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, entities.ReportStatusCreated, reports[0].Status)
	assert.Equal(t, "schedule unavailable", reports[1].FailureCause)
	assert.True(t, reports[0].GeneratedAt.IsZero())
}
