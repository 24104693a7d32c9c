package collab

// ChangeKind names a durable mutation that room members should refetch.
type ChangeKind string

const (
	ChangeDashboardUpdate  ChangeKind = ChangeKind(EventDashboardUpdate)
	ChangeAnnotationAdd    ChangeKind = ChangeKind(EventAnnotationAdd)
	ChangeAnnotationDelete ChangeKind = ChangeKind(EventAnnotationDelete)
)

// Notifier is what mutation handlers hold to announce committed changes.
// Implementations must only be called after the store confirms the write.
type Notifier interface {
	NotifyDurableChange(dashboardID int64, kind ChangeKind, excludeConnID string)
}

// NotifyDurableChange broadcasts a payloadless refetch signal to the
// dashboard's room. excludeConnID suppresses the echo to the live connection
// of the client that made the mutation; pass "" when the mutating client has
// no live connection. The id is client-supplied, so values that do not name a
// registered connection are discarded rather than stamped on the event.
// Callers invoke this strictly after a successful commit, so a failed write
// never produces a broadcast.
func (h *Hub) NotifyDurableChange(dashboardID int64, kind ChangeKind, excludeConnID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[excludeConnID]; !ok {
		excludeConnID = ""
	}
	h.broadcastLocked(Event{
		Type:         EventType(kind),
		DashboardID:  dashboardID,
		SenderConnID: excludeConnID,
	}, excludeConnID, true)
}
