package providers

import (
	"context"

	"github.com/tinysteps/report-service/internal/domain/entities"
)

// Artifact describes a rendered report file on disk
type Artifact struct {
	Path string
	Size int64
}

// Renderer defines the interface for producing a report artifact in one
// output format
type Renderer interface {
	// Format returns the report format this renderer produces
	Format() entities.ReportFormat

	// Render writes the report artifact and returns its location and size
	Render(ctx context.Context, report *entities.Report, appointments []*entities.Appointment) (*Artifact, error)
}
