// Package handler exposes the AI analysis endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"collabboard/backend/internal/ai/service"
	datasourcesvc "collabboard/backend/internal/datasource/service"
	"collabboard/backend/internal/httpx"
	"collabboard/backend/internal/server/middleware"
)

// AIHandler serves /api/ai.
type AIHandler struct {
	svc *service.AIService
	log *slog.Logger
}

func NewAIHandler(svc *service.AIService, log *slog.Logger) *AIHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AIHandler{svc: svc, log: log}
}

type queryRequest struct {
	DataSourceID int64  `json:"dataSourceId"`
	Question     string `json:"question"`
}

// Query handles POST /api/ai/query.
func (h *AIHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DataSourceID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid data source id")
		return
	}
	if req.Question == "" {
		httpx.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	out, err := h.svc.Query(r.Context(), userID, req.DataSourceID, req.Question)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Insights handles GET /api/ai/insights/{dataSourceId}.
func (h *AIHandler) Insights(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, h.svc.Insights)
}

// Anomalies handles GET /api/ai/anomalies/{dataSourceId}.
func (h *AIHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, h.svc.Anomalies)
}

// ChartSuggestions handles GET /api/ai/charts/{dataSourceId}.
func (h *AIHandler) ChartSuggestions(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, h.svc.ChartSuggestions)
}

func (h *AIHandler) analyze(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, dataSourceID int64) (json.RawMessage, error)) {
	dataSourceID, err := strconv.ParseInt(r.PathValue("dataSourceId"), 10, 64)
	if err != nil || dataSourceID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid data source id")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	out, err := fn(r.Context(), userID, dataSourceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *AIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, datasourcesvc.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotConfigured):
		httpx.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("ai analysis failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "analysis failed")
	}
}
