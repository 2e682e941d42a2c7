package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/repositories"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/postgres"
	apperrors "github.com/tinysteps/report-service/pkg/errors"
)

var reportColumns = []interface{}{
	"id", "title", "report_type", "format", "user_id", "branch_id",
	"start_date", "end_date", "status", "file_path", "file_size",
	"failure_cause", "generated_at", "created_at", "updated_at",
}

// ReportAdapter implements the ReportRepository interface
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) repositories.ReportRepository {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new report
func (a *ReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	record := goqu.Record{
		"id":            report.ID,
		"title":         report.Title,
		"report_type":   report.ReportType,
		"format":        report.Format,
		"user_id":       report.UserID,
		"branch_id":     report.BranchID,
		"start_date":    report.StartDate,
		"end_date":      report.EndDate,
		"status":        report.Status,
		"file_path":     report.FilePath,
		"file_size":     report.FileSize,
		"failure_cause": report.FailureCause,
		"generated_at":  nullableTime(report.GeneratedAt),
		"created_at":    report.CreatedAt,
		"updated_at":    report.UpdatedAt,
	}

	query, args, err := a.db.Insert("reports").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create report", err)
	}

	return nil
}

// GetByID retrieves a report by ID
func (a *ReportAdapter) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	query, args, err := a.db.Select(reportColumns...).
		From("reports").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	report, err := scanReport(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get report", err)
	}

	return report, nil
}

// Update persists the current state of a report
func (a *ReportAdapter) Update(ctx context.Context, report *entities.Report) error {
	record := goqu.Record{
		"status":        report.Status,
		"file_path":     report.FilePath,
		"file_size":     report.FileSize,
		"failure_cause": report.FailureCause,
		"generated_at":  nullableTime(report.GeneratedAt),
		"updated_at":    report.UpdatedAt,
	}

	query, args, err := a.db.Update("reports").
		Set(record).
		Where(goqu.Ex{"id": report.ID}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update report", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", report.ID))
	}

	return nil
}

// Search retrieves reports matching the filter. Present predicates are
// combined with AND; absent ones are skipped entirely.
func (a *ReportAdapter) Search(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	ds := a.db.Select(reportColumns...).From("reports")

	if filter.ReportType != "" {
		ds = ds.Where(goqu.Ex{"report_type": filter.ReportType})
	}

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	if filter.UserID != "" {
		ds = ds.Where(goqu.Ex{"user_id": filter.UserID})
	}

	if filter.BranchID != "" {
		ds = ds.Where(goqu.Ex{"branch_id": filter.BranchID})
	}

	if filter.StartDate != nil {
		ds = ds.Where(goqu.C("created_at").Gte(startOfDay(*filter.StartDate)))
	}

	if filter.EndDate != nil {
		ds = ds.Where(goqu.C("created_at").Lte(endOfDay(*filter.EndDate)))
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search reports", err)
	}
	defer rows.Close()

	var reports []*entities.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan report", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*entities.Report, error) {
	report := &entities.Report{}
	var filePath, failureCause sql.NullString
	var fileSize sql.NullInt64
	var generatedAt sql.NullTime

	err := row.Scan(
		&report.ID,
		&report.Title,
		&report.ReportType,
		&report.Format,
		&report.UserID,
		&report.BranchID,
		&report.StartDate,
		&report.EndDate,
		&report.Status,
		&filePath,
		&fileSize,
		&failureCause,
		&generatedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.FilePath = filePath.String
	report.FileSize = fileSize.Int64
	report.FailureCause = failureCause.String
	if generatedAt.Valid {
		report.GeneratedAt = generatedAt.Time
	}

	return report, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// startOfDay widens the lower bound to midnight of its calendar day
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay widens the upper bound to the last second of its calendar day
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
