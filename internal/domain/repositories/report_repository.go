package repositories

import (
	"context"
	"time"

	"github.com/tinysteps/report-service/internal/domain/entities"
)

// ReportRepository defines the interface for report persistence
type ReportRepository interface {
	// Create persists a new report
	Create(ctx context.Context, report *entities.Report) error

	// GetByID retrieves a report by ID
	GetByID(ctx context.Context, id string) (*entities.Report, error)

	// Update persists the current state of a report
	Update(ctx context.Context, report *entities.Report) error

	// Search retrieves reports matching the filter
	Search(ctx context.Context, filter ReportFilter) ([]*entities.Report, error)
}

// ReportFilter defines optional predicates for searching reports. Absent
// fields are skipped; present fields are combined with AND.
type ReportFilter struct {
	ReportType entities.ReportType
	Status     entities.ReportStatus
	UserID     string
	BranchID   string

	// StartDate and EndDate bound created_at inclusively. StartDate is
	// widened to 00:00:00 and EndDate to 23:59:59 of their calendar days.
	StartDate *time.Time
	EndDate   *time.Time

	Limit  int
	Offset int
}
