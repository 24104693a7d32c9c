// Package handler exposes the dashboard CRUD and activity endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	activitydomain "collabboard/backend/internal/activity/domain"
	"collabboard/backend/internal/dashboard/domain"
	"collabboard/backend/internal/dashboard/service"
	"collabboard/backend/internal/httpx"
	"collabboard/backend/internal/server/middleware"
)

// connIDHeader carries the caller's live connection id so its own websocket
// is excluded from the broadcast triggered by the mutation.
const connIDHeader = "X-Connection-ID"

// DashboardHandler serves /api/dashboards.
type DashboardHandler struct {
	svc *service.DashboardService
	log *slog.Logger
}

func NewDashboardHandler(svc *service.DashboardService, log *slog.Logger) *DashboardHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardHandler{svc: svc, log: log}
}

type dashboardRequest struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

type dashboardResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	OwnerID   int64           `json:"ownerId"`
	Config    json.RawMessage `json:"config"`
	Version   int             `json:"version"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

func toDashboardResponse(d *domain.Dashboard) dashboardResponse {
	return dashboardResponse{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		Config:    d.Config,
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

type activityResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	DashboardID int64           `json:"dashboardId"`
	Action      string          `json:"action"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

func toActivityResponse(e *activitydomain.Entry) activityResponse {
	return activityResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		DashboardID: e.DashboardID,
		Action:      e.Action,
		Details:     e.Details,
		CreatedAt:   e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /api/dashboards.
func (h *DashboardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	dashboards, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.log.Error("list dashboards failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "could not list dashboards")
		return
	}
	out := make([]dashboardResponse, 0, len(dashboards))
	for _, d := range dashboards {
		out = append(out, toDashboardResponse(d))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/dashboards/{id}.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, err, "could not load dashboard")
		return
	}
	httpx.JSON(w, http.StatusOK, toDashboardResponse(d))
}

// Create handles POST /api/dashboards.
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	var req dashboardRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.svc.Create(r.Context(), userID, req.Name, req.Config)
	if err != nil {
		h.writeError(w, err, "could not create dashboard")
		return
	}
	httpx.JSON(w, http.StatusCreated, toDashboardResponse(d))
}

// Update handles PUT /api/dashboards/{id}.
func (h *DashboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dashboardRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.svc.Update(r.Context(), id, userID, req.Name, req.Config, r.Header.Get(connIDHeader))
	if err != nil {
		h.writeError(w, err, "could not update dashboard")
		return
	}
	httpx.JSON(w, http.StatusOK, toDashboardResponse(d))
}

// Delete handles DELETE /api/dashboards/{id}.
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, userID, r.Header.Get(connIDHeader)); err != nil {
		h.writeError(w, err, "could not delete dashboard")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "dashboard deleted"})
}

// Activity handles GET /api/dashboards/{id}/activity.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	entries, err := h.svc.Activity(r.Context(), id, userID, limit)
	if err != nil {
		h.writeError(w, err, "could not load activity")
		return
	}
	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toActivityResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, service.ErrNotFound.Error())
	case errors.Is(err, service.ErrValidation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error(fallback, "error", err)
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid dashboard id")
		return 0, false
	}
	return id, true
}
