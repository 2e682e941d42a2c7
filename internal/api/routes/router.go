package routes

import (
	"net/http"

	"github.com/tinysteps/report-service/internal/api/handlers"
	"github.com/tinysteps/report-service/internal/api/middleware"
	"github.com/tinysteps/report-service/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux           *http.ServeMux
	reportHandler *handlers.ReportHandler
	jwtSecret     string
	metrics       *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(reportHandler *handlers.ReportHandler, jwtSecret string, metrics *observability.Metrics) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		reportHandler: reportHandler,
		jwtSecret:     jwtSecret,
		metrics:       metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	auth := middleware.AuthMiddleware(r.jwtSecret)

	// Report endpoints
	r.mux.Handle("POST /api/v1/reports", auth(http.HandlerFunc(r.reportHandler.GenerateReport)))
	r.mux.Handle("GET /api/v1/reports/search", auth(http.HandlerFunc(r.reportHandler.SearchReports)))
	r.mux.Handle("GET /api/v1/reports/download/{filename}", auth(http.HandlerFunc(r.reportHandler.DownloadFile)))
	r.mux.Handle("GET /api/v1/reports/{id}", auth(http.HandlerFunc(r.reportHandler.GetReport)))
	r.mux.Handle("GET /api/v1/reports/{id}/download", auth(http.HandlerFunc(r.reportHandler.DownloadReport)))

	// Apply global middleware
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}

	return handler
}
