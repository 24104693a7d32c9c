// Package handler exposes the annotation endpoints.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"collabboard/backend/internal/annotation/domain"
	"collabboard/backend/internal/annotation/service"
	"collabboard/backend/internal/httpx"
	"collabboard/backend/internal/server/middleware"
)

const connIDHeader = "X-Connection-ID"

// AnnotationHandler serves /api/annotations.
type AnnotationHandler struct {
	svc *service.AnnotationService
	log *slog.Logger
}

func NewAnnotationHandler(svc *service.AnnotationService, log *slog.Logger) *AnnotationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AnnotationHandler{svc: svc, log: log}
}

type createRequest struct {
	DashboardID int64   `json:"dashboardId"`
	DataPoint   string  `json:"dataPoint"`
	Content     string  `json:"content"`
	XPos        float64 `json:"xPos"`
	YPos        float64 `json:"yPos"`
}

type annotationResponse struct {
	ID          int64   `json:"id"`
	DashboardID int64   `json:"dashboardId"`
	UserID      int64   `json:"userId"`
	UserEmail   string  `json:"userEmail,omitempty"`
	DataPoint   string  `json:"dataPoint,omitempty"`
	Content     string  `json:"content"`
	XPos        float64 `json:"xPos"`
	YPos        float64 `json:"yPos"`
	CreatedAt   string  `json:"createdAt"`
}

func toAnnotationResponse(a *domain.Annotation) annotationResponse {
	return annotationResponse{
		ID:          a.ID,
		DashboardID: a.DashboardID,
		UserID:      a.UserID,
		UserEmail:   a.UserEmail,
		DataPoint:   a.DataPoint,
		Content:     a.Content,
		XPos:        a.XPos,
		YPos:        a.YPos,
		CreatedAt:   a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /api/annotations/{dashboardId}.
func (h *AnnotationHandler) List(w http.ResponseWriter, r *http.Request) {
	dashboardID, err := strconv.ParseInt(r.PathValue("dashboardId"), 10, 64)
	if err != nil || dashboardID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid dashboard id")
		return
	}
	annotations, err := h.svc.List(r.Context(), dashboardID)
	if err != nil {
		h.writeError(w, err, "could not list annotations")
		return
	}
	out := make([]annotationResponse, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, toAnnotationResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Create handles POST /api/annotations.
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.Create(r.Context(), userID, service.CreateParams{
		DashboardID: req.DashboardID,
		DataPoint:   req.DataPoint,
		Content:     req.Content,
		XPos:        req.XPos,
		YPos:        req.YPos,
	}, r.Header.Get(connIDHeader))
	if err != nil {
		h.writeError(w, err, "could not create annotation")
		return
	}
	httpx.JSON(w, http.StatusCreated, toAnnotationResponse(a))
}

type updateRequest struct {
	DataPoint string  `json:"dataPoint"`
	Content   string  `json:"content"`
	XPos      float64 `json:"xPos"`
	YPos      float64 `json:"yPos"`
}

// Update handles PUT /api/annotations/{id}.
func (h *AnnotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid annotation id")
		return
	}
	var req updateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.Update(r.Context(), id, userID, service.UpdateParams{
		DataPoint: req.DataPoint,
		Content:   req.Content,
		XPos:      req.XPos,
		YPos:      req.YPos,
	}, r.Header.Get(connIDHeader))
	if err != nil {
		h.writeError(w, err, "could not update annotation")
		return
	}
	httpx.JSON(w, http.StatusOK, toAnnotationResponse(a))
}

// Delete handles DELETE /api/annotations/{id}.
func (h *AnnotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid annotation id")
		return
	}
	if err := h.svc.Delete(r.Context(), id, userID, r.Header.Get(connIDHeader)); err != nil {
		h.writeError(w, err, "could not delete annotation")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "annotation deleted"})
}

func (h *AnnotationHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrDashboardNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error(fallback, "error", err)
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}
