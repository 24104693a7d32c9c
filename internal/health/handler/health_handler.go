// Package handler exposes liveness and realtime stats endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"collabboard/backend/internal/httpx"
)

// Pinger checks a dependency's reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatsProvider reports realtime engine counters.
type StatsProvider interface {
	Stats() (connections, rooms int)
}

// HealthHandler serves /health and /stats.
type HealthHandler struct {
	db    Pinger
	stats StatsProvider
	log   *slog.Logger
}

// NewHealthHandler returns a HealthHandler. db may be nil when the server
// runs without a database.
func NewHealthHandler(db Pinger, stats StatsProvider, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{db: db, stats: stats, log: log}
}

// Health handles GET /health. It reports 503 when the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn("database ping failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	httpx.JSON(w, code, map[string]string{"status": status})
}

// Stats handles GET /stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	connections, rooms := h.stats.Stats()
	httpx.JSON(w, http.StatusOK, map[string]int{
		"activeConnections": connections,
		"activeRooms":       rooms,
	})
}
