package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tinysteps/report-service/internal/api/middleware"
	"github.com/tinysteps/report-service/internal/application/services"
	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/repositories"
	apperrors "github.com/tinysteps/report-service/pkg/errors"
)

const dateLayout = "2006-01-02"

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	service     *services.ReportService
	storagePath string
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *services.ReportService, storagePath string) *ReportHandler {
	return &ReportHandler{
		service:     service,
		storagePath: storagePath,
	}
}

type generateReportRequest struct {
	ReportType string `json:"reportType"`
	Format     string `json:"format"`
	BranchID   string `json:"branchId"`
	DoctorID   string `json:"doctorId"`
	PatientID  string `json:"patientId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// GenerateReport handles POST /api/v1/reports
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var body generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.ReportType == "" || body.Format == "" {
		respondWithError(w, http.StatusBadRequest, "reportType and format are required")
		return
	}

	startDate, err := time.Parse(dateLayout, body.StartDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "startDate must be formatted as YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, body.EndDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "endDate must be formatted as YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		respondWithError(w, http.StatusBadRequest, "startDate must not be after endDate")
		return
	}

	req := entities.ReportRequest{
		ReportType: entities.ReportType(body.ReportType),
		Format:     entities.ReportFormat(strings.ToUpper(body.Format)),
		UserID:     middleware.UserIDFromContext(r.Context()),
		BranchID:   body.BranchID,
		DoctorID:   body.DoctorID,
		PatientID:  body.PatientID,
		StartDate:  startDate,
		EndDate:    endDate,
	}

	report, err := h.service.Generate(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

// GetReport handles GET /api/v1/reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// SearchReports handles GET /api/v1/reports/search
func (h *ReportHandler) SearchReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.ReportFilter{
		ReportType: entities.ReportType(query.Get("reportType")),
		Status:     entities.ReportStatus(query.Get("status")),
		UserID:     query.Get("userId"),
		BranchID:   query.Get("branchId"),
		Limit:      50,
	}

	if raw := query.Get("startDate"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "startDate must be formatted as YYYY-MM-DD")
			return
		}
		filter.StartDate = &parsed
	}
	if raw := query.Get("endDate"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "endDate must be formatted as YYYY-MM-DD")
			return
		}
		filter.EndDate = &parsed
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	reports, err := h.service.Search(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if reports == nil {
		reports = []*entities.Report{}
	}
	respondWithJSON(w, http.StatusOK, reports)
}

// DownloadReport handles GET /api/v1/reports/{id}/download
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if report.Status != entities.ReportStatusCompleted {
		respondWithError(w, http.StatusConflict, fmt.Sprintf("report is %s, not COMPLETED", report.Status))
		return
	}

	h.serveArtifact(w, r, report.FilePath)
}

// DownloadFile handles GET /api/v1/reports/download/{filename}
func (h *ReportHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || filename != filepath.Base(filename) {
		respondWithError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	h.serveArtifact(w, r, filepath.Join(h.storagePath, filename))
}

func (h *ReportHandler) serveArtifact(w http.ResponseWriter, r *http.Request, path string) {
	filename := filepath.Base(path)

	w.Header().Set("Content-Type", contentTypeForFile(filename))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

func contentTypeForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeUnauthorized:
			respondWithError(w, http.StatusUnauthorized, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
