package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownConnection is returned when an operation names a connection id the
// hub has no record of.
var ErrUnknownConnection = errors.New("collab: unknown connection")

// ErrDuplicateConnection is returned by Register when the connection id is
// already registered.
var ErrDuplicateConnection = errors.New("collab: duplicate connection id")

// Relay fans locally originated events out to peer server processes sharing
// the same broadcast domain. Origin is the publishing hub's instance id;
// receivers drop envelopes carrying their own id.
type Relay interface {
	Publish(ctx context.Context, origin string, e Event) error
}

type connState struct {
	conn  Conn
	rooms map[int64]struct{}
}

// relayQueueSize bounds the backlog of events waiting for the relay
// publisher. Overflow drops events, matching best-effort delivery.
const relayQueueSize = 256

// Hub owns all realtime state for one server process: the connection registry,
// the room table, and cursor presence. All three live under one mutex so every
// observable transition is atomic; nothing under the lock blocks, because
// Conn.Send is required to be non-blocking and relay publishes are handed to
// a queue drained off the lock.
type Hub struct {
	log      *slog.Logger
	instance string

	mu       sync.Mutex
	conns    map[string]*connState
	rooms    map[int64]map[string]Conn
	presence map[int64]map[string]Cursor
	relayCh  chan Event
}

// New returns an empty hub with a fresh instance id.
func New(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:      log,
		instance: uuid.NewString(),
		conns:    make(map[string]*connState),
		rooms:    make(map[int64]map[string]Conn),
		presence: make(map[int64]map[string]Cursor),
	}
}

// InstanceID identifies this hub in relay envelopes.
func (h *Hub) InstanceID() string { return h.instance }

// SetRelay installs the cross-process relay and starts the goroutine that
// publishes queued events, so a slow or stalled relay connection never holds
// the hub mutex. Call before serving traffic.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relayCh = make(chan Event, relayQueueSize)
	go h.publishLoop(r, h.relayCh)
}

// CloseRelay stops the relay publisher after draining queued events. Call
// during shutdown, once no more broadcasts are produced.
func (h *Hub) CloseRelay() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.relayCh != nil {
		close(h.relayCh)
		h.relayCh = nil
	}
}

func (h *Hub) publishLoop(r Relay, ch <-chan Event) {
	for e := range ch {
		if err := r.Publish(context.Background(), h.instance, e); err != nil {
			h.log.Warn("relay publish failed", "type", e.Type, "dashboard_id", e.DashboardID, "error", err)
		}
	}
}

// Register adds a connection to the registry. The connection is in no rooms
// until it joins one.
func (h *Hub) Register(c Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID()]; ok {
		return ErrDuplicateConnection
	}
	h.conns[c.ID()] = &connState{conn: c, rooms: make(map[int64]struct{})}
	h.log.Debug("connection registered", "conn_id", c.ID(), "user_id", c.UserID())
	return nil
}

// Deregister removes a connection, leaving every room it was in first so the
// remaining members each see one user:leave per room. It is idempotent and
// safe to call while a broadcast triggered the removal.
func (h *Hub) Deregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.conns[connID]
	if !ok {
		return
	}
	for dashID := range st.rooms {
		h.leaveLocked(st, dashID)
	}
	delete(h.conns, connID)
	h.log.Debug("connection deregistered", "conn_id", connID)
}

// Join adds the connection to the dashboard's room and announces user:join to
// the other members. Joining a room the connection is already in is a no-op
// and announces nothing.
func (h *Hub) Join(connID string, dashboardID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	h.joinLocked(st, dashboardID)
	return nil
}

// joinLocked adds st to the room and announces user:join to the other members.
// A repeat join is a no-op so no member ever sees a duplicate announcement.
func (h *Hub) joinLocked(st *connState, dashboardID int64) {
	connID := st.conn.ID()
	if _, member := st.rooms[dashboardID]; member {
		return
	}
	st.rooms[dashboardID] = struct{}{}
	room := h.rooms[dashboardID]
	if room == nil {
		room = make(map[string]Conn)
		h.rooms[dashboardID] = room
	}
	room[connID] = st.conn
	h.broadcastLocked(Event{
		Type:         EventUserJoin,
		DashboardID:  dashboardID,
		SenderConnID: connID,
		UserID:       st.conn.UserID(),
	}, connID, true)
	h.log.Debug("joined room", "conn_id", connID, "dashboard_id", dashboardID, "members", len(room))
}

// Leave removes the connection from the dashboard's room, dropping its cursor
// and announcing user:leave to the remaining members. Leaving a room the
// connection is not in is a no-op.
func (h *Hub) Leave(connID string, dashboardID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if _, member := st.rooms[dashboardID]; !member {
		return nil
	}
	h.leaveLocked(st, dashboardID)
	return nil
}

// leaveLocked removes st from one room and announces the departure. The room
// table entry is dropped when the last member leaves.
func (h *Hub) leaveLocked(st *connState, dashboardID int64) {
	connID := st.conn.ID()
	delete(st.rooms, dashboardID)
	if cursors, ok := h.presence[dashboardID]; ok {
		delete(cursors, connID)
		if len(cursors) == 0 {
			delete(h.presence, dashboardID)
		}
	}
	room := h.rooms[dashboardID]
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, dashboardID)
	}
	h.broadcastLocked(Event{
		Type:         EventUserLeave,
		DashboardID:  dashboardID,
		SenderConnID: connID,
		UserID:       st.conn.UserID(),
	}, connID, true)
}

// MembersOf returns the connection ids currently in the dashboard's room.
func (h *Hub) MembersOf(dashboardID int64) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[dashboardID]
	ids := make([]string, 0, len(room))
	for id := range room {
		ids = append(ids, id)
	}
	return ids
}

// ActiveCount returns the number of connections in the dashboard's room.
func (h *Hub) ActiveCount(dashboardID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[dashboardID])
}

// Stats reports registry and room table sizes for the stats endpoint.
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns), len(h.rooms)
}

// isMemberLocked reports whether connID is in the dashboard's room.
func (h *Hub) isMemberLocked(connID string, dashboardID int64) bool {
	_, ok := h.rooms[dashboardID][connID]
	return ok
}

// broadcastLocked delivers e to every member of the room except exclude. A
// failed Send marks that one connection dead and schedules its removal; other
// recipients are unaffected. When relay is true and a relay is installed, the
// event is queued for the relay publisher; a full queue drops the event
// rather than block the hub.
func (h *Hub) broadcastLocked(e Event, exclude string, relay bool) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Error("marshal event", "type", e.Type, "error", err)
		return
	}
	for id, c := range h.rooms[e.DashboardID] {
		if id == exclude {
			continue
		}
		if err := c.Send(data); err != nil {
			h.log.Warn("send failed, dropping connection", "conn_id", id, "error", err)
			go h.Deregister(id)
		}
	}
	if relay && h.relayCh != nil {
		select {
		case h.relayCh <- e:
		default:
			h.log.Warn("relay queue full, dropping event", "type", e.Type, "dashboard_id", e.DashboardID)
		}
	}
}

// DeliverRemote fans out an event received from a peer process to the local
// members of its room. Remote events are never re-published.
func (h *Hub) DeliverRemote(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(e, e.SenderConnID, false)
}
