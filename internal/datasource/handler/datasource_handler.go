// Package handler exposes the data upload endpoints.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"collabboard/backend/internal/datasource/domain"
	"collabboard/backend/internal/datasource/service"
	"collabboard/backend/internal/httpx"
	"collabboard/backend/internal/server/middleware"
)

// DataSourceHandler serves /api/data.
type DataSourceHandler struct {
	svc            *service.DataSourceService
	maxUploadBytes int64
	log            *slog.Logger
}

func NewDataSourceHandler(svc *service.DataSourceService, maxUploadBytes int64, log *slog.Logger) *DataSourceHandler {
	if log == nil {
		log = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &DataSourceHandler{svc: svc, maxUploadBytes: maxUploadBytes, log: log}
}

type dataSourceResponse struct {
	ID          int64  `json:"id"`
	DashboardID int64  `json:"dashboardId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Metadata    any    `json:"metadata"`
	Data        any    `json:"data,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func toDataSourceResponse(ds *domain.DataSource, includeData bool) dataSourceResponse {
	out := dataSourceResponse{
		ID:          ds.ID,
		DashboardID: ds.DashboardID,
		Name:        ds.Name,
		Type:        ds.Type,
		Metadata:    ds.Metadata,
		CreatedAt:   ds.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if includeData {
		out.Data = ds.Data
	}
	return out
}

// Upload handles POST /api/data/upload: a multipart form with a "file" part
// and a "dashboardId" field.
func (h *DataSourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid upload")
		return
	}
	dashboardID, err := strconv.ParseInt(r.FormValue("dashboardId"), 10, 64)
	if err != nil || dashboardID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid dashboard id")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ds, err := h.svc.Upload(r.Context(), userID, dashboardID, header.Filename, file)
	if err != nil {
		h.writeError(w, err, "could not process upload")
		return
	}
	httpx.JSON(w, http.StatusCreated, toDataSourceResponse(ds, true))
}

// ListByDashboard handles GET /api/data/sources/{dashboardId}. Row data is
// omitted from the listing; fetch one source for its rows.
func (h *DataSourceHandler) ListByDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	dashboardID, err := strconv.ParseInt(r.PathValue("dashboardId"), 10, 64)
	if err != nil || dashboardID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid dashboard id")
		return
	}
	sources, err := h.svc.ListByDashboard(r.Context(), userID, dashboardID)
	if err != nil {
		h.writeError(w, err, "could not list data sources")
		return
	}
	out := make([]dataSourceResponse, 0, len(sources))
	for _, ds := range sources {
		out = append(out, toDataSourceResponse(ds, false))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/data/source/{id}.
func (h *DataSourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid data source id")
		return
	}
	ds, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, "could not load data source")
		return
	}
	httpx.JSON(w, http.StatusOK, toDataSourceResponse(ds, true))
}

// Delete handles DELETE /api/data/source/{id}.
func (h *DataSourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid data source id")
		return
	}
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "could not delete data source")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "data source deleted"})
}

func (h *DataSourceHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrDashboardNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnsupportedType), errors.Is(err, service.ErrEmptyFile):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error(fallback, "error", err)
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}
