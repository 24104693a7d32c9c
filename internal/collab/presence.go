package collab

import "time"

// Cursor is one connection's last reported position on a dashboard.
type Cursor struct {
	X         float64
	Y         float64
	UpdatedAt time.Time
}

// setCursorLocked records the position and broadcasts cursor:move to the other
// members. The caller has already validated membership.
func (h *Hub) setCursorLocked(st *connState, dashboardID int64, x, y float64) {
	connID := st.conn.ID()
	cursors := h.presence[dashboardID]
	if cursors == nil {
		cursors = make(map[string]Cursor)
		h.presence[dashboardID] = cursors
	}
	cursors[connID] = Cursor{X: x, Y: y, UpdatedAt: time.Now()}
	h.broadcastLocked(Event{
		Type:         EventCursorMove,
		DashboardID:  dashboardID,
		SenderConnID: connID,
		UserID:       st.conn.UserID(),
		X:            x,
		Y:            y,
	}, connID, true)
}

// Cursors returns a snapshot of the known cursor positions on a dashboard,
// keyed by connection id.
func (h *Hub) Cursors(dashboardID int64) map[string]Cursor {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]Cursor, len(h.presence[dashboardID]))
	for id, c := range h.presence[dashboardID] {
		out[id] = c
	}
	return out
}

// PruneStale drops cursors not updated within maxAge. Connections whose
// clients idle keep their room membership; only the stale position goes away.
func (h *Hub) PruneStale(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	h.mu.Lock()
	defer h.mu.Unlock()
	for dashID, cursors := range h.presence {
		for id, c := range cursors {
			if c.UpdatedAt.Before(cutoff) {
				delete(cursors, id)
			}
		}
		if len(cursors) == 0 {
			delete(h.presence, dashID)
		}
	}
}
