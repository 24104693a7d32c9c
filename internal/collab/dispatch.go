package collab

import "encoding/json"

// handlers maps inbound action names to their handlers. Actions outside this
// table are ignored.
var handlers = map[string]func(h *Hub, st *connState, msg ClientMessage){
	ActionJoinDashboard:    (*Hub).handleJoin,
	ActionLeaveDashboard:   (*Hub).handleLeave,
	ActionCursorMove:       (*Hub).handleCursorMove,
	ActionDashboardUpdate:  (*Hub).handleDashboardUpdate,
	ActionAnnotationAdd:    (*Hub).handleAnnotationAdd,
	ActionAnnotationDelete: (*Hub).handleAnnotationDelete,
}

// HandleMessage parses one raw client frame and dispatches it. Malformed or
// unknown input is logged and dropped; a bad frame never tears down the
// connection or the hub.
func (h *Hub) HandleMessage(c Conn, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.Warn("malformed client message", "conn_id", c.ID(), "error", err)
		return
	}
	fn, ok := handlers[msg.Type]
	if !ok {
		h.log.Debug("unknown action ignored", "conn_id", c.ID(), "action", msg.Type)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.conns[c.ID()]
	if !ok {
		return
	}
	fn(h, st, msg)
}

func (h *Hub) handleJoin(st *connState, msg ClientMessage) {
	h.joinLocked(st, msg.DashboardID)
}

func (h *Hub) handleLeave(st *connState, msg ClientMessage) {
	if _, member := st.rooms[msg.DashboardID]; !member {
		return
	}
	h.leaveLocked(st, msg.DashboardID)
}

// handleCursorMove requires membership: positions from connections outside the
// room are dropped so a stale or misbehaving client cannot ghost-write into a
// dashboard it never joined.
func (h *Hub) handleCursorMove(st *connState, msg ClientMessage) {
	if !h.isMemberLocked(st.conn.ID(), msg.DashboardID) {
		h.log.Debug("cursor from non-member dropped", "conn_id", st.conn.ID(), "dashboard_id", msg.DashboardID)
		return
	}
	h.setCursorLocked(st, msg.DashboardID, msg.X, msg.Y)
}

// handleDashboardUpdate forwards the client's payload to the other members.
// Membership is required; the payload is opaque to the hub.
func (h *Hub) handleDashboardUpdate(st *connState, msg ClientMessage) {
	if !h.isMemberLocked(st.conn.ID(), msg.DashboardID) {
		h.log.Debug("update from non-member dropped", "conn_id", st.conn.ID(), "dashboard_id", msg.DashboardID)
		return
	}
	h.broadcastLocked(Event{
		Type:         EventDashboardUpdate,
		DashboardID:  msg.DashboardID,
		SenderConnID: st.conn.ID(),
		UserID:       st.conn.UserID(),
		Data:         msg.Data,
	}, st.conn.ID(), true)
}

func (h *Hub) handleAnnotationAdd(st *connState, msg ClientMessage) {
	h.handleAnnotationSignal(st, msg, EventAnnotationAdd)
}

func (h *Hub) handleAnnotationDelete(st *connState, msg ClientMessage) {
	h.handleAnnotationSignal(st, msg, EventAnnotationDelete)
}

// handleAnnotationSignal rebroadcasts an annotation change as a payloadless
// refetch signal. The durable write happens over the REST surface; the live
// path only tells other members to reload.
func (h *Hub) handleAnnotationSignal(st *connState, msg ClientMessage, typ EventType) {
	if !h.isMemberLocked(st.conn.ID(), msg.DashboardID) {
		h.log.Debug("annotation signal from non-member dropped", "conn_id", st.conn.ID(), "dashboard_id", msg.DashboardID)
		return
	}
	h.broadcastLocked(Event{
		Type:         typ,
		DashboardID:  msg.DashboardID,
		SenderConnID: st.conn.ID(),
		UserID:       st.conn.UserID(),
	}, st.conn.ID(), true)
}
