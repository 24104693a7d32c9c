package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collabboard/backend/internal/httpx"
	"collabboard/backend/internal/security"
	"collabboard/backend/internal/server/middleware"
)

// readyFrame is the first message on every connection. It tells the client its
// connection id, which the client echoes in X-Connection-ID on REST mutations
// so its own live connection is excluded from the resulting broadcast.
type readyFrame struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

// Handler upgrades authenticated requests to websocket sessions. Browsers
// cannot set headers on websocket dials, so the access token is also accepted
// as a "token" query parameter.
type Handler struct {
	hub      Hub
	tokens   *security.TokenProvider
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub Hub, tokens *security.TokenProvider, allowedOrigin string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearer(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	userID, _, _, err := h.tokens.ValidateAccess(token)
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := NewConn(uuid.NewString(), userID, ws, h.hub, h.log)
	if err := conn.Run(); err != nil {
		h.log.Warn("websocket register failed", "conn_id", conn.ID(), "error", err)
		return
	}
	ready, _ := json.Marshal(readyFrame{Type: "connection:ready", ConnectionID: conn.ID()})
	if err := conn.Send(ready); err != nil {
		h.log.Warn("ready frame dropped", "conn_id", conn.ID(), "error", err)
	}
	h.log.Info("websocket connected", "conn_id", conn.ID(), "user_id", userID)
}
